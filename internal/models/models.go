// Package models holds the GORM models. Every row belongs to one tenant,
// identified by UserID.
package models

// All lists the models handled by migrations, parents first.
func All() []any {
	return []any{
		&Client{},
		&Product{},
		&Invoice{},
		&InvoiceLine{},
		&CompanyProfile{},
	}
}

func joinAddress(address, postalCode, city, country string) string {
	addr := address
	if postalCode != "" || city != "" {
		if addr != "" {
			addr += "\n"
		}
		addr += postalCode
		if postalCode != "" && city != "" {
			addr += " "
		}
		addr += city
	}
	if country != "" {
		if addr != "" {
			addr += "\n"
		}
		addr += country
	}
	return addr
}

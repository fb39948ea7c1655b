// Package i18n holds the message catalog used for client-visible errors.
package i18n

import (
	"context"
	"fmt"
	"strings"
)

// DefaultLang is used when no supported language is requested.
const DefaultLang = "en"

var messages = map[string]map[string]string{
	"en": {
		"required":             "Required",
		"must_be_positive":     "Must be greater than zero",
		"must_not_be_negative": "Must not be negative",
		"out_of_range":         "Out of range",
		"too_many_decimals":    "Too many decimal places",
		"invalid_status":       "Unknown invoice status",
		"invalid_date":         "Invalid date, expected YYYY-MM-DD",
		"invalid_template":     "Unknown PDF template",
		"not_found":            "Not found",
		"conflict":             "Already exists",
		"in_use":               "Still referenced by other records",
		"limit.clients":        "You have reached the limit of %d clients on your %s plan. Upgrade your plan to add more clients.",
		"limit.invoices":       "You have reached the limit of %d invoices this month on your %s plan. Upgrade your plan to create more invoices.",
		"feature.denied":       "This feature requires '%s', which is not available on your %s plan. Upgrade your plan to access it.",
		"plan.denied":          "This feature requires one of the following plans: %s. Your current plan is: %s",
		"pdf.invoice":          "Invoice",
		"pdf.number":           "Number",
		"pdf.date":             "Date",
		"pdf.status":           "Status",
		"pdf.bill_to":          "Bill to",
		"pdf.description":      "Description",
		"pdf.quantity":         "Qty",
		"pdf.unit_price":       "Unit price",
		"pdf.tax_rate":         "Tax",
		"pdf.amount":           "Amount",
		"pdf.subtotal":         "Subtotal",
		"pdf.tax_total":        "Tax",
		"pdf.total":            "Total",
		"pdf.page":             "Page {current} of {total}",
	},
	"es": {
		"required":             "Obligatorio",
		"must_be_positive":     "Debe ser mayor que cero",
		"must_not_be_negative": "No puede ser negativo",
		"out_of_range":         "Fuera de rango",
		"too_many_decimals":    "Demasiados decimales",
		"invalid_status":       "Estado de factura desconocido",
		"invalid_date":         "Fecha inválida, se espera AAAA-MM-DD",
		"invalid_template":     "Plantilla PDF desconocida",
		"not_found":            "No encontrado",
		"conflict":             "Ya existe",
		"in_use":               "Está en uso por otros registros",
		"limit.clients":        "Has alcanzado el límite de %d clientes en tu plan %s. Actualiza tu plan para añadir más clientes.",
		"limit.invoices":       "Has alcanzado el límite de %d facturas este mes en tu plan %s. Actualiza tu plan para crear más facturas.",
		"feature.denied":       "Esta función requiere la característica '%s' que no está disponible en tu plan %s. Actualiza tu plan para acceder a esta función.",
		"plan.denied":          "Esta función requiere uno de los siguientes planes: %s. Tu plan actual es: %s",
		"pdf.invoice":          "Factura",
		"pdf.number":           "Número",
		"pdf.date":             "Fecha",
		"pdf.status":           "Estado",
		"pdf.bill_to":          "Facturar a",
		"pdf.description":      "Descripción",
		"pdf.quantity":         "Cant.",
		"pdf.unit_price":       "Precio unitario",
		"pdf.tax_rate":         "IVA",
		"pdf.amount":           "Importe",
		"pdf.subtotal":         "Base imponible",
		"pdf.tax_total":        "IVA",
		"pdf.total":            "Total",
		"pdf.page":             "Página {current} de {total}",
	},
}

// T returns the translation of code in lang, falling back to the default
// language and then to the code itself.
func T(lang, code string) string {
	if m, ok := messages[lang]; ok {
		if s, ok := m[code]; ok {
			return s
		}
	}
	if s, ok := messages[DefaultLang][code]; ok {
		return s
	}
	return code
}

// Tf formats the translation of code with args.
func Tf(lang, code string, args ...any) string {
	return fmt.Sprintf(T(lang, code), args...)
}

// Supported reports whether lang has a catalog.
func Supported(lang string) bool {
	_, ok := messages[lang]
	return ok
}

// DetectLanguage picks the first supported language from an Accept-Language
// header value.
func DetectLanguage(header string) string {
	return Negotiate(header, DefaultLang)
}

// Negotiate is DetectLanguage with a caller-chosen fallback.
func Negotiate(header, fallback string) string {
	for _, part := range strings.Split(header, ",") {
		tag := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		base := strings.ToLower(strings.SplitN(tag, "-", 2)[0])
		if Supported(base) {
			return base
		}
	}
	if Supported(fallback) {
		return fallback
	}
	return DefaultLang
}

type langKey struct{}

// WithLang stores the request language in ctx.
func WithLang(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, langKey{}, lang)
}

// LangFromContext returns the request language, or DefaultLang.
func LangFromContext(ctx context.Context) string {
	if lang, ok := ctx.Value(langKey{}).(string); ok && lang != "" {
		return lang
	}
	return DefaultLang
}

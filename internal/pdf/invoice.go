// Package pdf renders invoices to PDF with maroto.
package pdf

import (
	"errors"
	"fmt"
	"strings"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/diewo77/facturo/i18n"
	"github.com/diewo77/facturo/internal/models"
	"github.com/diewo77/facturo/internal/totals"
)

// ErrNoInvoice is returned when a Document carries no invoice.
var ErrNoInvoice = errors.New("pdf: document has no invoice")

// Document is the finalized input of a render. Totals must already be
// computed from the invoice lines; the renderer never derives amounts.
type Document struct {
	Invoice *models.Invoice
	// Company is optional; without it the header only shows the invoice title.
	Company *models.CompanyProfile
	Totals  totals.Totals
	Lang    string
	// Template defaults to TemplateBase.
	Template Template
}

// Template selects the layout styling of a render.
type Template string

const (
	TemplateBase   Template = "base"
	TemplateModern Template = "modern"
)

// ErrUnknownTemplate is returned by ParseTemplate for unsupported names.
var ErrUnknownTemplate = errors.New("pdf: unknown template")

// ParseTemplate validates name. An empty name selects TemplateBase.
func ParseTemplate(name string) (Template, error) {
	switch Template(name) {
	case "", TemplateBase:
		return TemplateBase, nil
	case TemplateModern:
		return TemplateModern, nil
	}
	return "", fmt.Errorf("%w %q", ErrUnknownTemplate, name)
}

// style is the per-template look of titles, table headings and rules.
type style struct {
	title   props.Text
	heading props.Text
	rule    props.Line
}

var (
	primary = &props.Color{Red: 37, Green: 99, Blue: 235}
	accent  = &props.Color{Red: 30, Green: 64, Blue: 175}
)

func styleOf(tpl Template) style {
	if tpl == TemplateModern {
		return style{
			title:   props.Text{Size: 22, Style: fontstyle.Bold, Align: align.Right, Color: primary},
			heading: props.Text{Size: 9, Style: fontstyle.Bold, Color: accent},
			rule:    props.Line{Color: primary, Thickness: 0.8},
		}
	}
	return style{
		title:   props.Text{Size: 20, Style: fontstyle.Bold, Align: align.Right},
		heading: props.Text{Size: 9, Style: fontstyle.Bold},
		rule:    props.Line{Thickness: 0.2},
	}
}

func (st style) headingRight() props.Text {
	p := st.heading
	p.Align = align.Right
	return p
}

// Renderer produces invoice PDFs.
type Renderer struct{}

func NewRenderer() *Renderer {
	return &Renderer{}
}

var (
	small = props.Text{Size: 9}
	right = props.Text{Size: 9, Align: align.Right}
)

// Invoice renders doc and returns the PDF bytes.
func (r *Renderer) Invoice(doc Document) ([]byte, error) {
	inv := doc.Invoice
	if inv == nil {
		return nil, ErrNoInvoice
	}
	lang := doc.Lang
	if lang == "" {
		lang = i18n.DefaultLang
	}
	t := func(code string) string { return i18n.T(lang, code) }
	st := styleOf(doc.Template)

	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: t("pdf.page"),
			Place:   props.RightBottom,
		}).
		Build()
	m := maroto.New(cfg)

	m.AddRow(12,
		text.NewCol(8, companyName(doc.Company), props.Text{Size: 16, Style: fontstyle.Bold}),
		text.NewCol(4, t("pdf.invoice"), st.title),
	)
	if c := doc.Company; c != nil {
		m.AddRow(20,
			col.New(8).Add(
				text.New(c.TaxID, small),
				text.New(c.FullAddress(), props.Text{Size: 9, Top: 4}),
				text.New(joinNonEmpty(" | ", c.Phone, c.Email, c.Website), props.Text{Size: 9, Top: 8}),
			),
			col.New(4),
		)
	}

	client := inv.Client
	if client == nil {
		client = &models.Client{}
	}
	m.AddRow(28,
		col.New(6).Add(
			text.New(t("pdf.bill_to"), st.heading),
			text.New(client.Name, props.Text{Size: 9, Top: 5}),
			text.New(client.TaxID, props.Text{Size: 9, Top: 9}),
			text.New(client.FullAddress(), props.Text{Size: 9, Top: 13}),
			text.New(client.Email, props.Text{Size: 9, Top: 17}),
		),
		col.New(6).Add(
			text.New(t("pdf.number")+": "+inv.Number, props.Text{Size: 9, Align: align.Right}),
			text.New(t("pdf.date")+": "+inv.Date.Format("2006-01-02"), props.Text{Size: 9, Top: 4, Align: align.Right}),
			text.New(t("pdf.status")+": "+string(inv.Status), props.Text{Size: 9, Top: 8, Align: align.Right}),
		),
	)

	m.AddRow(8,
		text.NewCol(5, t("pdf.description"), st.heading),
		text.NewCol(1, t("pdf.quantity"), st.headingRight()),
		text.NewCol(2, t("pdf.unit_price"), st.headingRight()),
		text.NewCol(2, t("pdf.tax_rate"), st.headingRight()),
		text.NewCol(2, t("pdf.amount"), st.headingRight()),
	)
	m.AddRow(2, line.NewCol(12, st.rule))

	for _, l := range inv.Lines {
		m.AddRow(7,
			text.NewCol(5, l.Description, small),
			text.NewCol(1, l.Quantity.String(), right),
			text.NewCol(2, totals.Format(l.UnitPrice), right),
			text.NewCol(2, l.TaxRate.String()+"%", right),
			text.NewCol(2, totals.Format(totals.LineSubtotal(l.TotalsLine())), right),
		)
	}
	m.AddRow(2, line.NewCol(12, st.rule))

	subtotal, tax, total := doc.Totals.Formatted()
	m.AddRow(6, col.New(8), text.NewCol(2, t("pdf.subtotal"), small), text.NewCol(2, subtotal, right))
	m.AddRow(6, col.New(8), text.NewCol(2, t("pdf.tax_total"), small), text.NewCol(2, tax, right))
	m.AddRow(8,
		col.New(8),
		text.NewCol(2, t("pdf.total"), st.heading),
		text.NewCol(2, total, st.headingRight()),
	)

	if inv.Notes != "" {
		m.AddRow(12, text.NewCol(12, inv.Notes, props.Text{Size: 9, Top: 4}))
	}
	if c := doc.Company; c != nil {
		if bank := joinNonEmpty(" | ", c.Bank, c.IBAN); bank != "" {
			m.AddRow(8, text.NewCol(12, bank, props.Text{Size: 8, Top: 2}))
		}
		if c.PaymentTerms != "" {
			m.AddRow(8, text.NewCol(12, c.PaymentTerms, props.Text{Size: 8}))
		}
		if c.LegalText != "" {
			m.AddRow(10, text.NewCol(12, c.LegalText, props.Text{Size: 7, Style: fontstyle.Italic}))
		}
	}

	out, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate invoice %s: %w", inv.Number, err)
	}
	return out.GetBytes(), nil
}

func companyName(c *models.CompanyProfile) string {
	if c == nil {
		return ""
	}
	return c.Name
}

func joinNonEmpty(sep string, parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}

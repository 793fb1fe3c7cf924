// Package render builds the customer-facing approval email.
package render

import (
	"bytes"
	"html/template"
	"time"

	"github.com/aquaserve/poolops/internal/estimate/domain"
	"github.com/aquaserve/poolops/internal/estimate/format"
)

const approvalHTMLTemplate = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <title>Estimate {{.Number}}</title>
  <style>
    body {
      margin: 0;
      padding: 40px;
      font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif;
      color: #1a1f36;
      background: #f7f9fc;
    }
    .card {
      background: #ffffff;
      max-width: 640px;
      margin: 0 auto;
      padding: 48px;
      border-radius: 4px;
      box-shadow: 0 2px 5px rgba(0,0,0,0.04);
    }
    h1 { margin: 0 0 8px; font-size: 22px; }
    .muted { color: #8792a2; font-size: 13px; }
    table { width: 100%; border-collapse: collapse; margin: 24px 0; }
    th, td { padding: 8px 4px; font-size: 13px; text-align: left; }
    th { color: #8792a2; text-transform: uppercase; font-size: 11px; border-bottom: 1px solid #e3e8ee; }
    td.amount, th.amount { text-align: right; }
    .totals td { border-top: 1px solid #e3e8ee; font-weight: 600; }
    .actions { margin-top: 32px; text-align: center; }
    .btn {
      display: inline-block;
      padding: 12px 28px;
      margin: 0 8px;
      border-radius: 4px;
      font-size: 14px;
      font-weight: 600;
      text-decoration: none;
    }
    .btn-approve { background: #1f8a4c; color: #ffffff; }
    .btn-decline { background: #f1f3f5; color: #b42318; }
    .expiry { margin-top: 24px; text-align: center; font-size: 12px; color: #8792a2; }
  </style>
</head>
<body>
  <div class="card">
    <h1>Estimate {{.Number}}</h1>
    <p class="muted">Prepared for {{.CustomerName}}{{if .PropertyName}} &middot; {{.PropertyName}}{{end}}</p>
    {{if .Title}}<p>{{.Title}}</p>{{end}}

    <table>
      <tr>
        <th>Description</th>
        <th class="amount">Qty</th>
        <th class="amount">Unit price</th>
        <th class="amount">Amount</th>
      </tr>
      {{range .Items}}
      <tr>
        <td>{{.Name}}</td>
        <td class="amount">{{.Quantity}}</td>
        <td class="amount">{{.UnitRate}}</td>
        <td class="amount">{{.Amount}}</td>
      </tr>
      {{end}}
      <tr class="totals">
        <td colspan="3">Subtotal</td>
        <td class="amount">{{.Subtotal}}</td>
      </tr>
      {{if .Discount}}
      <tr class="totals">
        <td colspan="3">Discount</td>
        <td class="amount">-{{.Discount}}</td>
      </tr>
      {{end}}
      <tr class="totals">
        <td colspan="3">Tax</td>
        <td class="amount">{{.Tax}}</td>
      </tr>
      <tr class="totals">
        <td colspan="3">Total</td>
        <td class="amount">{{.Total}}</td>
      </tr>
    </table>

    <div class="actions">
      <a class="btn btn-approve" href="{{.ApproveURL}}">Approve estimate</a>
      <a class="btn btn-decline" href="{{.DeclineURL}}">Decline</a>
    </div>

    <p class="expiry">This link expires on {{.ExpiresAt}}. No account or password is needed.</p>
  </div>
</body>
</html>
`

type itemView struct {
	Name     string
	Quantity int64
	UnitRate string
	Amount   string
}

type approvalView struct {
	Number       string
	Title        string
	CustomerName string
	PropertyName string
	Items        []itemView
	Subtotal     string
	Discount     string
	Tax          string
	Total        string
	ApproveURL   string
	DeclineURL   string
	ExpiresAt    string
}

// Renderer produces the HTML body for the approval email.
type Renderer interface {
	RenderApprovalHTML(estimate domain.Estimate, approveURL, declineURL string, expiresAt time.Time) (string, error)
}

type HTMLRenderer struct {
	tpl *template.Template
}

func NewRenderer() Renderer {
	return &HTMLRenderer{
		tpl: template.Must(template.New("approval").Parse(approvalHTMLTemplate)),
	}
}

func (r *HTMLRenderer) RenderApprovalHTML(estimate domain.Estimate, approveURL, declineURL string, expiresAt time.Time) (string, error) {
	number := estimate.EstimateNumber
	if number == "" {
		number = estimate.ID.String()
	}

	view := approvalView{
		Number:       number,
		Title:        estimate.Title,
		CustomerName: estimate.CustomerName,
		PropertyName: estimate.PropertyName,
		Subtotal:     format.Money(estimate.Subtotal),
		Tax:          format.Money(estimate.TaxAmount),
		Total:        format.Money(estimate.TotalAmount),
		ApproveURL:   approveURL,
		DeclineURL:   declineURL,
		ExpiresAt:    expiresAt.UTC().Format("January 2, 2006"),
	}
	if estimate.DiscountAmount > 0 {
		view.Discount = format.Money(estimate.DiscountAmount)
	}
	for _, item := range estimate.LineItems {
		view.Items = append(view.Items, itemView{
			Name:     item.Name,
			Quantity: item.Quantity,
			UnitRate: format.Money(item.UnitRate),
			Amount:   format.Money(item.Amount),
		})
	}

	var buf bytes.Buffer
	if err := r.tpl.Execute(&buf, view); err != nil {
		return "", err
	}

	return buf.String(), nil
}

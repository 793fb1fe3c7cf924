package pdf

import (
	"context"
	"fmt"

	estimatedomain "github.com/aquaserve/poolops/internal/estimate/domain"
	"github.com/aquaserve/poolops/internal/estimate/format"
	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

type PDFProvider struct{}

func New() Provider {
	return &PDFProvider{}
}

func (p *PDFProvider) RenderEstimate(ctx context.Context, estimate estimatedomain.Estimate) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(10,
		text.NewCol(12, "Estimate", props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)

	number := estimate.EstimateNumber
	if number == "" {
		number = estimate.ID.String()
	}
	m.AddRow(16,
		col.New(6).Add(
			text.New("Estimate number: "+number, props.Text{Top: 0}),
			text.New("Date: "+estimate.CreatedAt.Format("January 2, 2006"), props.Text{Top: 4}),
			text.New("Property: "+estimate.PropertyName, props.Text{Top: 8}),
		),
		col.New(6).Add(
			text.New("Prepared for", props.Text{Style: fontstyle.Bold}),
			text.New(estimate.CustomerName, props.Text{Top: 5}),
			text.New(estimate.CustomerEmail, props.Text{Top: 9}),
		),
	)

	if estimate.Title != "" {
		m.AddRow(10,
			text.NewCol(12, estimate.Title, props.Text{Size: 12, Style: fontstyle.Bold, Top: 2}),
		)
	}
	if estimate.Description != "" {
		m.AddRow(15,
			text.NewCol(12, estimate.Description, props.Text{Size: 9, Top: 2}),
		)
	}

	m.AddRow(10,
		text.NewCol(6, "Description", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Qty", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Unit price", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	for _, item := range estimate.LineItems {
		name := item.Name
		if !item.Taxable {
			name += " (non-taxable)"
		}
		m.AddRow(12,
			text.NewCol(6, name, props.Text{Size: 9}),
			text.NewCol(2, fmt.Sprintf("%d", item.Quantity), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, format.Money(item.UnitRate), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, format.Money(item.Amount), props.Text{Size: 9, Align: align.Right}),
		)
	}

	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Subtotal", props.Text{Size: 9}),
		text.NewCol(2, format.Money(estimate.Subtotal), props.Text{Size: 9, Align: align.Right}),
	)
	if estimate.DiscountAmount > 0 {
		m.AddRow(10,
			col.New(8),
			text.NewCol(2, "Discount", props.Text{Size: 9}),
			text.NewCol(2, "-"+format.Money(estimate.DiscountAmount), props.Text{Size: 9, Align: align.Right}),
		)
	}
	m.AddRow(10,
		col.New(8),
		text.NewCol(2, fmt.Sprintf("Tax (%s)", format.Percent(estimate.TaxRateBps)), props.Text{Size: 9}),
		text.NewCol(2, format.Money(estimate.TaxAmount), props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Total", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, format.Money(estimate.TotalAmount), props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}

	return doc.GetBytes(), nil
}

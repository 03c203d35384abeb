// Package projection combines market snapshots with holdings into per-token
// values, the portfolio total and the allocation chart.
package projection

import (
	"math"

	"token_portfolio/internal/domain/entity"
)

// Palette is the ordered chart palette. Colours are assigned by position, not by id.
var Palette = []string{
	"#F97316",
	"#8B5CF6",
	"#F59E0B",
	"#EF4444",
	"#10B981",
	"#06B6D4",
	"#3B82F6",
	"#84CC16",
	"#EC4899",
	"#8B5CF6",
}

// Project is referentially transparent: the same inputs always give the same view.
func Project(snapshots []entity.MarketSnapshot, holdings map[string]float64) entity.DerivedView {
	view := entity.DerivedView{
		Tokens: make([]entity.TokenView, 0, len(snapshots)),
		Chart:  []entity.ChartSlice{},
	}

	for _, snap := range snapshots {
		price := finiteOrZero(snap.CurrentPrice)
		held := finiteOrZero(holdings[snap.ID])
		token := entity.TokenView{
			ID:        snap.ID,
			Symbol:    snap.Symbol,
			Name:      snap.Name,
			Image:     snap.Image,
			Price:     price,
			Change24h: finiteOrZero(snap.PriceChangePercentage24h),
			Holdings:  held,
			Value:     price * held,
		}
		if snap.SparklineIn7d != nil {
			token.Sparkline = append([]float64(nil), snap.SparklineIn7d.Price...)
		}
		view.Tokens = append(view.Tokens, token)
		view.PortfolioTotal += token.Value
	}

	for _, token := range view.Tokens {
		if token.Holdings <= 0 {
			continue
		}
		idx := len(view.Chart) % len(Palette)
		percentage := 0.0
		if view.PortfolioTotal > 0 {
			percentage = token.Value / view.PortfolioTotal * 100
		}
		view.Chart = append(view.Chart, entity.ChartSlice{
			ID:         token.ID,
			Name:       token.Name,
			Symbol:     token.Symbol,
			Value:      token.Value,
			Percentage: percentage,
			ColorIndex: idx,
			Color:      Palette[idx],
		})
	}
	return view
}

func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

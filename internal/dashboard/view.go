package dashboard

import (
	"math"
	"strconv"
)

// View is everything the dashboard page renders, derived from a State.
type View struct {
	Product         ProductView         `json:"product"`
	Question        string              `json:"question"`
	Error           string              `json:"error,omitempty"`
	Phase           Phase               `json:"phase"`
	Classifying     bool                `json:"classifying"`
	Generating      bool                `json:"generating"`
	CanGenerate     bool                `json:"canGenerate"`
	Classification  *ClassificationView `json:"classification,omitempty"`
	Generated       *GeneratedView      `json:"generated,omitempty"`
	ConditionChoice []string            `json:"-"`
}

// ProductView holds the product as form input values.
type ProductView struct {
	Brand     string `json:"brand"`
	Model     string `json:"model"`
	Reference string `json:"reference"`
	Price     string `json:"price"`
	Year      string `json:"year"`
	Condition string `json:"condition"`
	Movement  string `json:"movement"`
	BoxPapers bool   `json:"box_papers"`
}

type ClassificationView struct {
	Type            string `json:"type"`
	TypeBadge       string `json:"typeBadge"`
	Topic           string `json:"topic,omitempty"`
	Urgency         string `json:"urgency,omitempty"`
	UrgencyBadge    string `json:"urgencyBadge,omitempty"`
	ConfidenceLabel string `json:"confidenceLabel"`
	BarWidth        int    `json:"barWidth"`
	Reasoning       string `json:"reasoning"`
}

type GeneratedView struct {
	ResponseText         string   `json:"responseText"`
	RequiresReview       bool     `json:"requiresReview"`
	ConfidenceLabel      string   `json:"confidenceLabel"`
	BarWidth             int      `json:"barWidth"`
	Reasoning            string   `json:"reasoning"`
	AlternativeResponses []string `json:"alternativeResponses,omitempty"`
}

// NewView derives the rendered form of s.
func NewView(s State) View {
	v := View{
		Product:         newProductView(s),
		Question:        s.Question,
		Error:           s.ErrorMessage(),
		Phase:           s.Phase(),
		Classifying:     s.Classifying,
		Generating:      s.Generating,
		CanGenerate:     CanGenerate(s),
		ConditionChoice: conditionChoices(s.Product.Condition),
	}

	if c := s.Classification; c != nil {
		cv := &ClassificationView{
			Type:            c.Type,
			TypeBadge:       TypeBadge(c.Type).Classes(),
			ConfidenceLabel: PercentLabel(c.Confidence),
			BarWidth:        BarWidth(c.Confidence),
			Reasoning:       c.Reasoning,
		}
		if c.Topic != nil && *c.Topic != "" {
			cv.Topic = *c.Topic
		}
		if c.Urgency != nil && *c.Urgency != "" {
			cv.Urgency = *c.Urgency
			cv.UrgencyBadge = UrgencyBadge(*c.Urgency).Classes()
		}
		v.Classification = cv
	}

	if g := s.Generated; g != nil {
		v.Generated = &GeneratedView{
			ResponseText:         g.ResponseText,
			RequiresReview:       g.RequiresReview,
			ConfidenceLabel:      PercentLabel(g.Confidence),
			BarWidth:             BarWidth(g.Confidence),
			Reasoning:            g.Reasoning,
			AlternativeResponses: g.AlternativeResponses,
		}
	}
	return v
}

func newProductView(s State) ProductView {
	p := s.Product
	pv := ProductView{
		Brand:     p.Brand,
		Model:     p.Model,
		Price:     formatNumber(p.Price),
		Condition: p.Condition,
		BoxPapers: p.BoxPapers,
	}
	if p.Reference != nil {
		pv.Reference = *p.Reference
	}
	if p.Movement != nil {
		pv.Movement = *p.Movement
	}
	// A zero year is shown as blank, like an absent one.
	if p.Year != nil && *p.Year != 0 {
		pv.Year = formatNumber(*p.Year)
	}
	return pv
}

// formatNumber prints whole numbers without decimals. NaN prints as blank.
func formatNumber(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// conditionChoices returns the fixed options plus current when it is not one of them.
func conditionChoices(current string) []string {
	for _, c := range ConditionOptions {
		if c == current {
			return ConditionOptions
		}
	}
	if current == "" {
		return ConditionOptions
	}
	return append([]string{current}, ConditionOptions...)
}

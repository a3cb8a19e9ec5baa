// internal/cohost/models.go
package cohost

import (
	"encoding/json"
	"math"
)

// ProductContext describes the item currently being sold.
// Optional fields are nil when absent. Price and Year may hold NaN after an unparseable edit.
type ProductContext struct {
	Brand     string   `json:"brand"`
	Model     string   `json:"model"`
	Reference *string  `json:"reference,omitempty"`
	Price     float64  `json:"price"`
	Year      *float64 `json:"year,omitempty"`
	Condition string   `json:"condition"`
	Movement  *string  `json:"movement,omitempty"`
	BoxPapers bool     `json:"box_papers"`
}

// jsonFloat encodes NaN and infinities as null instead of failing.
type jsonFloat float64

func (f jsonFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

func (p ProductContext) MarshalJSON() ([]byte, error) {
	type wire struct {
		Brand     string     `json:"brand"`
		Model     string     `json:"model"`
		Reference *string    `json:"reference,omitempty"`
		Price     jsonFloat  `json:"price"`
		Year      *jsonFloat `json:"year,omitempty"`
		Condition string     `json:"condition"`
		Movement  *string    `json:"movement,omitempty"`
		BoxPapers bool       `json:"box_papers"`
	}
	w := wire{
		Brand:     p.Brand,
		Model:     p.Model,
		Reference: p.Reference,
		Price:     jsonFloat(p.Price),
		Condition: p.Condition,
		Movement:  p.Movement,
		BoxPapers: p.BoxPapers,
	}
	if p.Year != nil {
		y := jsonFloat(*p.Year)
		w.Year = &y
	}
	return json.Marshal(w)
}

// SellerPreferences steer the tone and length of generated answers.
type SellerPreferences struct {
	Tone            string `json:"tone"`
	MaxLength       int    `json:"max_length"`
	IncludeUsername bool   `json:"include_username"`
}

// DefaultSellerPreferences are sent with every generation request.
func DefaultSellerPreferences() SellerPreferences {
	return SellerPreferences{
		Tone:            "professional",
		MaxLength:       150,
		IncludeUsername: false,
	}
}

type ClassifyRequest struct {
	Message  string `json:"message"`
	Username string `json:"username,omitempty"`
}

type GenerateRequest struct {
	Question          string             `json:"question"`
	ProductContext    ProductContext     `json:"product_context"`
	SellerPreferences *SellerPreferences `json:"seller_preferences,omitempty"`
}

// ClassificationResult is the remote verdict on a buyer message.
type ClassificationResult struct {
	Type       string  `json:"type"`
	Confidence float64 `json:"confidence"`
	Topic      *string `json:"topic,omitempty"`
	Urgency    *string `json:"urgency,omitempty"`
	Reasoning  string  `json:"reasoning"`
}

// GeneratedResponse is a drafted answer the seller can read aloud or post.
type GeneratedResponse struct {
	ResponseText         string   `json:"response_text"`
	Confidence           float64  `json:"confidence"`
	RequiresReview       bool     `json:"requires_review"`
	Reasoning            string   `json:"reasoning"`
	AlternativeResponses []string `json:"alternative_responses,omitempty"`
}

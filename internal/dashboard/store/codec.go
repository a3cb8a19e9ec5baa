package store

import (
	"encoding/json"
	"strconv"

	"cohost-dashboard/internal/cohost"
	"cohost-dashboard/internal/dashboard"
)

// storedState is the Redis form of a session. Numbers are kept as strings so NaN
// survives the round trip, and optional fields keep the difference between nil and "".
type storedState struct {
	Product        storedProduct                `json:"product"`
	Question       string                       `json:"question"`
	Classification *cohost.ClassificationResult `json:"classification,omitempty"`
	Generated      *cohost.GeneratedResponse    `json:"generated,omitempty"`
	Error          *string                      `json:"error,omitempty"`
	Classifying    bool                         `json:"classifying"`
	Generating     bool                         `json:"generating"`
}

type storedProduct struct {
	Brand     string  `json:"brand"`
	Model     string  `json:"model"`
	Reference *string `json:"reference,omitempty"`
	Price     string  `json:"price"`
	Year      *string `json:"year,omitempty"`
	Condition string  `json:"condition"`
	Movement  *string `json:"movement,omitempty"`
	BoxPapers bool    `json:"box_papers"`
}

func encodeState(s dashboard.State) ([]byte, error) {
	p := s.Product
	sp := storedProduct{
		Brand:     p.Brand,
		Model:     p.Model,
		Reference: p.Reference,
		Price:     formatFloat(p.Price),
		Condition: p.Condition,
		Movement:  p.Movement,
		BoxPapers: p.BoxPapers,
	}
	if p.Year != nil {
		y := formatFloat(*p.Year)
		sp.Year = &y
	}
	return json.Marshal(storedState{
		Product:        sp,
		Question:       s.Question,
		Classification: s.Classification,
		Generated:      s.Generated,
		Error:          s.Error,
		Classifying:    s.Classifying,
		Generating:     s.Generating,
	})
}

func decodeState(data []byte) (dashboard.State, error) {
	var ss storedState
	if err := json.Unmarshal(data, &ss); err != nil {
		return dashboard.State{}, err
	}

	sp := ss.Product
	price, err := strconv.ParseFloat(sp.Price, 64)
	if err != nil {
		return dashboard.State{}, err
	}
	product := cohost.ProductContext{
		Brand:     sp.Brand,
		Model:     sp.Model,
		Reference: sp.Reference,
		Price:     price,
		Condition: sp.Condition,
		Movement:  sp.Movement,
		BoxPapers: sp.BoxPapers,
	}
	if sp.Year != nil {
		year, err := strconv.ParseFloat(*sp.Year, 64)
		if err != nil {
			return dashboard.State{}, err
		}
		product.Year = &year
	}

	return dashboard.State{
		Product:        product,
		Question:       ss.Question,
		Classification: ss.Classification,
		Generated:      ss.Generated,
		Error:          ss.Error,
		Classifying:    ss.Classifying,
		Generating:     ss.Generating,
	}, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

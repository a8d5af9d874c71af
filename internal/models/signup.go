package models

// SignUpEvent is a subscriber registration published on the company signup topic.
type SignUpEvent struct {
	ID             int64             `json:"id"`
	Abonent        SignUpAbonent     `json:"abonent"`
	Address        SignUpAddress     `json:"address"`
	Application    SignUpApplication `json:"application"`
	Virtual        bool              `json:"virtual"`
	OfferSigned    bool              `json:"offerSigned"`
	ContractNumber *string           `json:"contractNumber,omitempty"`
	Status         string            `json:"status"`
}

type SignUpAbonent struct {
	ID    int64 `json:"id"`
	Phone Phone `json:"phone"`
}

type SignUpAddress struct {
	Country SignUpCountry `json:"country"`
	City    string        `json:"city"`
	Street  SignUpStreet  `json:"street"`
	House   SignUpHouse   `json:"house"`
	Flat    *int          `json:"flat,omitempty"`
}

type SignUpCountry struct {
	Name      string `json:"name"`
	ShortName string `json:"shortName"`
}

type SignUpStreet struct {
	Name string `json:"name"`
}

type SignUpHouse struct {
	Number string `json:"number"`
}

type SignUpApplication struct {
	Name     string `json:"name"`
	Provider string `json:"provider"`
}

// ContractOrDefault returns the contract number or a placeholder when absent.
func (e *SignUpEvent) ContractOrDefault() string {
	if e.ContractNumber == nil || *e.ContractNumber == "" {
		return "not specified"
	}
	return *e.ContractNumber
}

// IsValid checks if a SignUpEvent has required fields.
func (e *SignUpEvent) IsValid() bool {
	return e.ID != 0
}

package models

// Entrance is a physical access point with the services installed on it.
type Entrance struct {
	ID       int64     `json:"id"`
	Address  string    `json:"address"`
	Services []Service `json:"services"`
}

// EntrancesPage is the paged envelope returned by the entrances endpoint.
type EntrancesPage struct {
	Content       []Entrance `json:"content"`
	TotalElements int        `json:"totalElements"`
	TotalPages    int        `json:"totalPages"`
	Number        int        `json:"number"`
	Size          int        `json:"size"`
}

// ServiceCount returns the number of services across all entrances on the page.
func (p *EntrancesPage) ServiceCount() int {
	count := 0
	for _, entrance := range p.Content {
		count += len(entrance.Services)
	}
	return count
}

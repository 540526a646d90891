package monitor

// Status is a snapshot of dependency health.
type Status struct {
	PostgreSQL  bool `json:"postgresql"`
	Redis       bool `json:"redis"`
	Journal     bool `json:"journal"`
	JournalSize int  `json:"journal_size"`
	Channels    int  `json:"channels"`
}

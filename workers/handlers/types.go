package handlers

type APIResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type APIReservesResponse struct {
	Status        string `json:"status"`
	Chain         string `json:"chain"`
	Token         string `json:"token"`
	Balance       string `json:"balance"`
	TotalIn       string `json:"totalBridgedIn"`
	TotalOut      string `json:"totalBridgedOut"`
	FeesCollected string `json:"feesCollected"`
	LowReserve    bool   `json:"lowReserve"`
}

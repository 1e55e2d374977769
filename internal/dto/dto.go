package dto

type ErrorResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	DB        string `json:"db"`
}

type LoginRequest struct {
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

type CommentRequest struct {
	Text string `json:"text"`
}

type VoteRequest struct {
	VoteType string `json:"vote_type"`
}

type BackfillRequest struct {
	BatchSize int  `json:"batch_size"`
	Offset    int  `json:"offset"`
	DryRun    bool `json:"dry_run"`
}

// GeocodeResponse carries both extraction modes for one coordinate pair.
type GeocodeResponse struct {
	Intersection     string `json:"intersection"`
	IntersectionTier string `json:"intersection_tier"`
	FullAddress      string `json:"full_address"`
	FullAddressTier  string `json:"full_address_tier"`
}

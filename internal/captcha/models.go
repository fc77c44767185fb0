package captcha

type Input struct {
	Token    string `json:"token"`
	RemoteIP string `json:"remoteIp,omitempty"`
}

type Output struct {
	Valid      bool     `json:"valid"`
	Message    string   `json:"message"`
	Reason     string   `json:"reason,omitempty"`
	ErrorCodes []string `json:"errorCodes,omitempty"`
}

// siteverifyResponse is shared by Turnstile and reCAPTCHA.
type siteverifyResponse struct {
	Success     bool     `json:"success"`
	ErrorCodes  []string `json:"error-codes"`
	Hostname    string   `json:"hostname"`
	ChallengeTS string   `json:"challenge_ts"`
}

package auth

import "time"

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

type lockedResponse struct {
	Error       apiError  `json:"error"`
	LockedUntil time.Time `json:"locked_until"`
}

type failedResponse struct {
	Error             apiError `json:"error"`
	RemainingAttempts int      `json:"remaining_attempts"`
}

package dto

type CodeRequest struct {
	Code string `json:"code" binding:"required"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

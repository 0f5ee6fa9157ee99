package handler

import "time"

// --- Auth ---

type registerRequest struct {
	Email    string `json:"email"    validate:"required,email,max=320"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Role     string `json:"role"     validate:"omitempty,oneof=USER ADMIN"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type tokenPairResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type meResponse struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

// --- Products ---

type createProductRequest struct {
	Name        string  `json:"name"        validate:"required,max=255"`
	Description string  `json:"description" validate:"max=2000"`
	Price       float64 `json:"price"       validate:"required,gt=0"`
}

// updateProductRequest is a partial update; absent fields stay unchanged.
type updateProductRequest struct {
	Name        *string  `json:"name"        validate:"omitempty,min=1,max=255"`
	Description *string  `json:"description" validate:"omitempty,max=2000"`
	Price       *float64 `json:"price"       validate:"omitempty,gt=0"`
}

type ownerResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type productResponse struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Price       float64        `json:"price"`
	UserID      string         `json:"userId"`
	User        *ownerResponse `json:"user,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// --- Search ---

type searchRequest struct {
	Query string `json:"q"    query:"q"    validate:"required,max=200"`
	Page  int    `json:"page" query:"page" validate:"omitempty,min=1"`
	Size  int    `json:"size" query:"size" validate:"omitempty,min=1,max=100"`
}

type searchResponse struct {
	Total    int64             `json:"total"`
	Page     int               `json:"page"`
	Size     int               `json:"size"`
	Products []productResponse `json:"products"`
}

// internals/features/properties/tools/dto/nonce_dto.go
package dto

type NonceRequest struct {
	Actions []string `json:"actions" validate:"required,min=1,max=20,dive,required,max=64"`
}

type NonceResponse struct {
	Nonces    map[string]string `json:"nonces"`
	ExpiresIn int64             `json:"expires_in"`
}

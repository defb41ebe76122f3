// Package commsec holds the wire shapes of the /commsec endpoints.
// Every byte field is standard (padded) base64, except plaintext and
// associated_data, which are UTF-8 text.
package commsec

type KeyPairResponse struct {
	PublicKey string `json:"public_key"`
	SecretKey string `json:"secret_key"`
}

type PublicKeyResponse struct {
	Algorithm    string `json:"algorithm"`
	KEMPublicKey string `json:"kem_public_key"`
}

type EncapsulateRequest struct {
	PublicKey string `json:"public_key"`
}

type EncapsulateResponse struct {
	Ciphertext   string `json:"ciphertext"`
	SharedSecret string `json:"shared_secret"`
}

// DecapsulateRequest: SecretKey is optional; when empty the server's own
// keypair is used.
type DecapsulateRequest struct {
	SecretKey  string `json:"secret_key,omitempty"`
	Ciphertext string `json:"ciphertext"`
}

type DecapsulateResponse struct {
	SharedSecret string `json:"shared_secret"`
}

type EncryptRequest struct {
	Algorithm      string `json:"algorithm,omitempty"`
	Key            string `json:"key"`
	Nonce          string `json:"nonce"`
	Plaintext      string `json:"plaintext"`
	AssociatedData string `json:"associated_data,omitempty"`
}

type EncryptResponse struct {
	Ciphertext string `json:"ciphertext"`
}

type DecryptRequest struct {
	Algorithm      string `json:"algorithm,omitempty"`
	Key            string `json:"key"`
	Nonce          string `json:"nonce"`
	Ciphertext     string `json:"ciphertext"`
	AssociatedData string `json:"associated_data,omitempty"`
}

type DecryptResponse struct {
	Plaintext string `json:"plaintext"`
}

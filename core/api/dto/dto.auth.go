package dto

// LoginInput est le corps de la requête de connexion
type LoginInput struct {
	NomUtilisateur string `json:"nomUtilisateur" validate:"required,no_xss"`
	MotDePasse     string `json:"motDePasse" validate:"required"`
}

// UtilisateurCreateInput est le corps de création d'un compte
type UtilisateurCreateInput struct {
	NomUtilisateur string `json:"nomUtilisateur" validate:"required,min=3,no_xss"`
	MotDePasse     string `json:"motDePasse" validate:"required"`
	NomComplet     string `json:"nomComplet" validate:"required,no_xss"`
	Role           string `json:"role" validate:"required,no_xss"`
	Agence         string `json:"agence" validate:"omitempty,no_xss"`
	Email          string `json:"email" validate:"omitempty,email"`
}

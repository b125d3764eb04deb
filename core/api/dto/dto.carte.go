package dto

// CarteCreateInput est le corps de création d'une carte. Les clés JSON
// reprennent les noms de colonnes du registre.
type CarteCreateInput struct {
	LieuEnrolement string `json:"LIEU D'ENROLEMENT" validate:"omitempty,no_xss"`
	SiteRetrait    string `json:"SITE DE RETRAIT" validate:"omitempty,no_xss"`
	Rangement      string `json:"RANGEMENT" validate:"omitempty,no_xss"`
	Nom            string `json:"NOM" validate:"required,no_xss"`
	Prenoms        string `json:"PRENOMS" validate:"required,no_xss"`
	DateNaissance  string `json:"DATE DE NAISSANCE" validate:"omitempty,no_xss"`
	LieuNaissance  string `json:"LIEU NAISSANCE" validate:"omitempty,no_xss"`
	Contact        string `json:"CONTACT" validate:"omitempty,no_xss"`
	Delivrance     string `json:"DELIVRANCE" validate:"omitempty,no_xss"`
	ContactRetrait string `json:"CONTACT DE RETRAIT" validate:"omitempty,no_xss"`
	DateDelivrance string `json:"DATE DE DELIVRANCE" validate:"omitempty,no_xss"`
}

// CarteImportInput est le corps d'un import en masse
type CarteImportInput struct {
	Cartes []CarteCreateInput `json:"cartes" validate:"required,min=1,dive"`
}
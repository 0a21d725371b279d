package models

import (
	"time"
)

// Banca is an exam board category such as CEBRASPE
type Banca struct {
	ID          string  `json:"id" gorm:"primaryKey;size:50"`
	Name        string  `json:"name" gorm:"not null;size:255"`
	Description *string `json:"description" gorm:"type:text"`
	LogoURL     *string `json:"logo_url" gorm:"type:text"`
	IsActive    bool    `json:"is_active" gorm:"not null;index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DefaultBancas are inserted on first start
func DefaultBancas() []Banca {
	cebraspe := "Centro Brasileiro de Pesquisa em Avaliação e Seleção e de Promoção de Eventos"
	cebraspeLogo := "/CEBRASPE_logo.png"
	fgv := "Fundação Getulio Vargas"
	fgvLogo := "/FGV_logo.png"

	return []Banca{
		{ID: "cebraspe", Name: "CEBRASPE", Description: &cebraspe, LogoURL: &cebraspeLogo, IsActive: true},
		{ID: "fgv", Name: "FGV", Description: &fgv, LogoURL: &fgvLogo, IsActive: false},
	}
}

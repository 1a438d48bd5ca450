package transport

type UpdateSettingsRequest struct {
	WhatsAppURL      *string `json:"whatsappUrl" validate:"omitempty,url|eq="`
	WhatsAppAPIKey   *string `json:"whatsappApiKey"`
	WhatsAppDeviceID *string `json:"whatsappDeviceId"`
	RelayURL         *string `json:"relayUrl" validate:"omitempty,url|eq="`
	AIAPIKey         *string `json:"aiApiKey"`
	FacebookAdsToken *string `json:"facebookAdsToken"`
	PaymentAPIKey    *string `json:"paymentApiKey"`
	SheetsID         *string `json:"sheetsId"`
}

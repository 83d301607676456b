package formclient

import "fmt"

// 界面提示文案
const (
	MsgLoading         = "Envoi en cours..."
	MsgHoneypotLoading = "Traitement..."
	MsgSuccess         = "Message envoyé ! Nous vous répondrons sous 24h."
	MsgHoneypotSuccess = "Message envoyé ! (protection anti-spam)"
)

// DefaultFallbackEmail 网络提交不可用时展示的联系地址
const DefaultFallbackEmail = "contact@traguardo.fr"

func infoMessage(fallback string) string {
	return fmt.Sprintf("L'envoi en ligne n'est pas configuré sur ce site. En attendant, écris-nous directement : %s", fallback)
}

func errorMessage(fallback string) string {
	return fmt.Sprintf("Erreur lors de l'envoi. Contactez-nous : %s", fallback)
}

package intent

import (
	"fmt"

	"github.com/ppiankov/cerebro/internal/model"
)

// Intent identifiers understood by the engine.
const (
	NavigateHome    = "navigate.home"
	NavigateJobs    = "navigate.jobs"
	NavigateWallet  = "navigate.wallet"
	NavigateChat    = "navigate.chat"
	NavigateEscudos = "navigate.escudos"

	WalletBalance  = "wallet_balance"
	WalletTransfer = "wallet_transfer"

	ChatOpen  = "chat_open"
	VideoCall = "video_call"

	OfferCreate       = "offer_create"
	OfferApply        = "offer_apply"
	HireRequest       = "hire_request"
	PerformanceUpload = "performance_upload"

	EscudoActivate = "escudo_activate"

	TerritoryAdmin = "territory_admin"
	DashboardAdmin = "dashboard_admin"
)

// Response is the default message and follow-ups shown when an intent is allowed.
type Response struct {
	Message string
	Actions []model.SuggestedAction
}

func navigate(route, label string) model.SuggestedAction {
	return model.SuggestedAction{
		Type:    "navigate",
		Payload: map[string]string{"route": route},
		Label:   label,
	}
}

var responses = map[string]Response{
	NavigateHome:    {Message: "Abriendo inicio.", Actions: []model.SuggestedAction{navigate("/", "Ir al inicio")}},
	NavigateJobs:    {Message: "Abriendo changas disponibles.", Actions: []model.SuggestedAction{navigate("/jobs", "Ver changas")}},
	NavigateWallet:  {Message: "Abriendo tu billetera.", Actions: []model.SuggestedAction{navigate("/wallet", "Ver billetera")}},
	NavigateChat:    {Message: "Abriendo tus conversaciones.", Actions: []model.SuggestedAction{navigate("/chat", "Ver chats")}},
	NavigateEscudos: {Message: "Abriendo tus escudos.", Actions: []model.SuggestedAction{navigate("/escudos", "Ver escudos")}},

	WalletBalance: {Message: "Este es tu saldo actual.", Actions: []model.SuggestedAction{navigate("/wallet", "Ver billetera")}},
	WalletTransfer: {Message: "Transferencia lista para confirmar.", Actions: []model.SuggestedAction{
		{Type: "confirm_transfer", Label: "Confirmar transferencia"},
	}},

	ChatOpen:  {Message: "Chat abierto.", Actions: []model.SuggestedAction{navigate("/chat", "Ir al chat")}},
	VideoCall: {Message: "Iniciando videollamada.", Actions: []model.SuggestedAction{{Type: "start_video", Label: "Iniciar videollamada"}}},

	OfferCreate: {Message: "Publicá tu oferta.", Actions: []model.SuggestedAction{navigate("/jobs/new", "Crear oferta")}},
	OfferApply:  {Message: "Postulación lista para enviar.", Actions: []model.SuggestedAction{{Type: "submit_application", Label: "Postularme"}}},
	HireRequest: {Message: "Solicitud de contratación lista.", Actions: []model.SuggestedAction{{Type: "submit_hire", Label: "Contratar"}}},
	PerformanceUpload: {Message: "Subí tu evidencia de trabajo.", Actions: []model.SuggestedAction{
		{Type: "upload", Payload: map[string]string{"kind": "performance"}, Label: "Subir evidencia"},
	}},

	EscudoActivate: {Message: "Escudo listo para activar.", Actions: []model.SuggestedAction{navigate("/escudos", "Ver escudos")}},

	TerritoryAdmin: {Message: "Panel de territorios abierto.", Actions: []model.SuggestedAction{navigate("/admin/territories", "Administrar territorios")}},
	DashboardAdmin: {Message: "Panel de control abierto.", Actions: []model.SuggestedAction{navigate("/admin", "Ir al panel")}},
}

// DefaultResponse returns the allowed-message and actions for an intent.
// Unknown intents return an ErrUnknownIntent so the engine can fail closed.
func DefaultResponse(id string) (Response, error) {
	r, ok := responses[id]
	if !ok {
		return Response{}, fmt.Errorf("%w: %q", model.ErrUnknownIntent, id)
	}
	actions := make([]model.SuggestedAction, len(r.Actions))
	copy(actions, r.Actions)
	return Response{Message: r.Message, Actions: actions}, nil
}

// Known returns true if the intent has a catalog entry.
func Known(id string) bool {
	_, ok := responses[id]
	return ok
}

// IDs returns every known intent identifier in a stable order.
func IDs() []string {
	return []string{
		NavigateHome, NavigateJobs, NavigateWallet, NavigateChat, NavigateEscudos,
		WalletBalance, WalletTransfer,
		ChatOpen, VideoCall,
		OfferCreate, OfferApply, HireRequest, PerformanceUpload,
		EscudoActivate,
		TerritoryAdmin, DashboardAdmin,
	}
}

// DefaultSensitive lists intents that are blocked in red zones.
// Everything else stays reachable there.
func DefaultSensitive() []string {
	return []string{
		WalletTransfer,
		VideoCall,
		OfferCreate,
		OfferApply,
		PerformanceUpload,
		TerritoryAdmin,
		DashboardAdmin,
	}
}

// DefaultImpact is the impact class assumed when a caller does not supply one.
func DefaultImpact(id string) model.ImpactClass {
	switch id {
	case WalletTransfer, OfferCreate, HireRequest:
		return model.ImpactMedium
	case TerritoryAdmin, DashboardAdmin:
		return model.ImpactHigh
	default:
		return model.ImpactLow
	}
}

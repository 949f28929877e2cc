package flow

import (
	"fmt"

	"github.com/benmeehan/kiosk-agent/internal/models"
)

func incompleteCode(length int, flow models.FlowKind) *models.ErrorState {
	message := fmt.Sprintf("Veuillez saisir un code à %d chiffres.", length)
	if flow == models.FlowPayment {
		message = fmt.Sprintf("Veuillez saisir un code facture à %d chiffres.", length)
	}
	return &models.ErrorState{
		Kind:     models.ErrorIncomplete,
		Title:    "Code incomplet",
		Message:  message,
		ReturnTo: models.StepCodeEntry,
	}
}

func invalidCode(flow models.FlowKind, returnTo models.Step) *models.ErrorState {
	if flow == models.FlowPayment {
		return &models.ErrorState{
			Kind:     models.ErrorInvalidCode,
			Title:    "Code facture invalide",
			Message:  "Le code que vous avez saisi ne correspond à aucune facture dans notre système.",
			ReturnTo: returnTo,
		}
	}
	return &models.ErrorState{
		Kind:     models.ErrorInvalidCode,
		Title:    "Code invalide",
		Message:  "Le code que vous avez saisi ne correspond à aucun rendez-vous dans notre système.",
		ReturnTo: returnTo,
	}
}

func serverError(returnTo models.Step) *models.ErrorState {
	return &models.ErrorState{
		Kind:     models.ErrorServer,
		Title:    "Erreur de serveur",
		Message:  "Une erreur s'est produite lors de la vérification. Veuillez réessayer plus tard ou contacter le secrétariat.",
		ReturnTo: returnTo,
	}
}

func detailsError(returnTo models.Step) *models.ErrorState {
	return &models.ErrorState{
		Kind:     models.ErrorServer,
		Title:    "Erreur de serveur",
		Message:  "Une erreur s'est produite lors de la récupération des détails. Veuillez réessayer plus tard ou contacter le secrétariat.",
		ReturnTo: returnTo,
	}
}

func unverifiedPatient(returnTo models.Step) *models.ErrorState {
	return &models.ErrorState{
		Kind:     models.ErrorInvalidCode,
		Title:    "Rendez-vous non vérifié",
		Message:  "Les informations de ce rendez-vous n'ont pas pu être vérifiées. Veuillez vous adresser au secrétariat.",
		ReturnTo: returnTo,
	}
}

func searchNotFound() *models.ErrorState {
	return &models.ErrorState{
		Kind:     models.ErrorInvalidCode,
		Title:    "Aucun rendez-vous trouvé",
		Message:  "Aucun rendez-vous n'a été trouvé avec ces informations. Vérifiez vos données ou contactez le secrétariat.",
		ReturnTo: models.StepPersonalSearch,
	}
}

func searchFailed() *models.ErrorState {
	return &models.ErrorState{
		Kind:     models.ErrorServer,
		Title:    "Erreur de recherche",
		Message:  "Une erreur s'est produite lors de la recherche. Veuillez réessayer ou contacter le secrétariat.",
		ReturnTo: models.StepPersonalSearch,
	}
}

var documentLabels = map[models.DocumentKind]string{
	models.DocumentInvoice:      "reçu",
	models.DocumentPrescription: "ordonnance",
}

func downloadFailed(kind models.DocumentKind) *models.ErrorState {
	return &models.ErrorState{
		Kind:     models.ErrorDownload,
		Title:    "Erreur de téléchargement",
		Message:  fmt.Sprintf("Une erreur est survenue lors du téléchargement du %s. Veuillez réessayer ou contacter le secrétariat.", documentLabels[kind]),
		ReturnTo: models.StepSuccess,
	}
}

func missingKioskCode() *models.ErrorState {
	return &models.ErrorState{
		Kind:     models.ErrorIncomplete,
		Title:    "Informations manquantes",
		Message:  "Veuillez saisir un code de borne valide.",
		ReturnTo: models.StepKioskAuth,
	}
}

func unknownKioskCode() *models.ErrorState {
	return &models.ErrorState{
		Kind:     models.ErrorInvalidCode,
		Title:    "Code invalide",
		Message:  "Le code de borne saisi n'existe pas dans le système.",
		ReturnTo: models.StepKioskAuth,
	}
}

func invalidKioskData() *models.ErrorState {
	return &models.ErrorState{
		Kind:     models.ErrorBadRequest,
		Title:    "Données invalides",
		Message:  "Les données fournies ne sont pas valides. Veuillez vérifier le code de borne.",
		ReturnTo: models.StepKioskAuth,
	}
}

func kioskConnectionFailed() *models.ErrorState {
	return &models.ErrorState{
		Kind:     models.ErrorServer,
		Title:    "Erreur de connexion",
		Message:  "Impossible de se connecter au serveur. Vérifiez votre connexion internet et réessayez.",
		ReturnTo: models.StepKioskAuth,
	}
}

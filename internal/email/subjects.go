package email

const (
	subjectSelectionInviteFmt     = "Ihre Bildergalerie für %s ist bereit"
	subjectFinalizationConfirmFmt = "Ihre Auswahl für %s ist eingegangen"
	subjectDeliveryFmt            = "Ihre Bilder für %s stehen zum Download bereit"
	subjectReopenRequestedFmt     = "Wiedereröffnung angefragt: %s"
	subjectReopenApprovedFmt      = "Ihre Galerie %s ist wieder geöffnet"
	subjectReopenDeniedFmt        = "Anfrage zur Wiedereröffnung von %s"
)

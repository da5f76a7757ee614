package email

const (
	subjectOrderConfirmedFmt = "New service order %s received"
)

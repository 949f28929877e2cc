package registry

// Service is the interface for all long-running kiosk services
type Service interface {
	Start() error
	Stop() error
}

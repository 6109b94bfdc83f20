package interfaces

// Repository defines the interface for data persistence
type Repository interface {
	Case() CaseRepository
	IncidentReport() IncidentReportRepository

	Close() error
}

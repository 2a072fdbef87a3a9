package server

// Server groups the per-resource servers behind one router.
type Server struct {
	DealServer
	ScanServer
	AdminServer
}

func NewServer(
	dealServer DealServer,
	scanServer ScanServer,
	adminServer AdminServer,
) Server {
	return Server{
		DealServer:  dealServer,
		ScanServer:  scanServer,
		AdminServer: adminServer,
	}
}

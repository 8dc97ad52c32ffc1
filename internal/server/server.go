package server

// Server объединяет специфичные HTTP сервера, отвечающие за обработку
// конкретных сущностей.
type Server struct {
	DisplayServer
	StorageServer
	BillingServer
}

func NewServer(
	displayServer DisplayServer,
	storageServer StorageServer,
	billingServer BillingServer,
) Server {
	return Server{
		DisplayServer: displayServer,
		StorageServer: storageServer,
		BillingServer: billingServer,
	}
}

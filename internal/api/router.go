package api

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/premik/internal/model"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, jwtSecret string) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	usersHandler := &UsersHandler{DB: db}
	itemsHandler := &ItemsHandler{DB: db}
	locationsHandler := &LocationsHandler{DB: db}
	customersHandler := &CustomersHandler{DB: db}
	gatesHandler := &GatesHandler{DB: db}
	movementsHandler := &MovementsHandler{DB: db}
	rentalsHandler := &RentalsHandler{DB: db}

	authMW := AuthMiddleware(jwtSecret, db)
	canMove := RequirePermission(model.PermInventoryMovement)
	canEdit := RequirePermission(model.PermMasterData)
	canAdmin := RequirePermission(model.PermUserAdmin)

	// Public: login.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Authenticated routes.
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))

	// Users.
	mux.Handle("GET /api/users", authMW(canAdmin(http.HandlerFunc(usersHandler.List))))
	mux.Handle("POST /api/users", authMW(canAdmin(http.HandlerFunc(usersHandler.Create))))
	mux.Handle("GET /api/users/{id}", authMW(canAdmin(http.HandlerFunc(usersHandler.Get))))
	mux.Handle("PUT /api/users/{id}", authMW(canAdmin(http.HandlerFunc(usersHandler.Update))))
	mux.Handle("PUT /api/users/{id}/password", authMW(canAdmin(http.HandlerFunc(usersHandler.ResetPassword))))
	mux.Handle("DELETE /api/users/{id}", authMW(canAdmin(http.HandlerFunc(usersHandler.Delete))))

	// Inventory registry: read (all roles), write (master data).
	mux.Handle("GET /api/items", authMW(http.HandlerFunc(itemsHandler.List)))
	mux.Handle("POST /api/items", authMW(canEdit(http.HandlerFunc(itemsHandler.Create))))
	mux.Handle("GET /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Get)))
	mux.Handle("PUT /api/items/{id}", authMW(canEdit(http.HandlerFunc(itemsHandler.Update))))
	mux.Handle("DELETE /api/items/{id}", authMW(canEdit(http.HandlerFunc(itemsHandler.Delete))))
	mux.Handle("PUT /api/items/{id}/photo", authMW(canEdit(http.HandlerFunc(itemsHandler.UploadPhoto))))
	mux.Handle("GET /api/items/{id}/photo", authMW(http.HandlerFunc(itemsHandler.GetPhoto)))
	mux.Handle("GET /api/items/{id}/history", authMW(http.HandlerFunc(itemsHandler.GetHistory)))
	mux.Handle("GET /api/items/{id}/location", authMW(http.HandlerFunc(itemsHandler.GetLocation)))
	mux.Handle("POST /api/items/locations", authMW(http.HandlerFunc(itemsHandler.ResolveLocations)))

	// Base locations.
	mux.Handle("GET /api/locations", authMW(http.HandlerFunc(locationsHandler.List)))
	mux.Handle("POST /api/locations", authMW(canEdit(http.HandlerFunc(locationsHandler.Create))))
	mux.Handle("GET /api/locations/{id}", authMW(http.HandlerFunc(locationsHandler.Get)))
	mux.Handle("PUT /api/locations/{id}", authMW(canEdit(http.HandlerFunc(locationsHandler.Update))))
	mux.Handle("DELETE /api/locations/{id}", authMW(canEdit(http.HandlerFunc(locationsHandler.Delete))))

	// Customers and customer locations.
	mux.Handle("GET /api/customers", authMW(http.HandlerFunc(customersHandler.List)))
	mux.Handle("POST /api/customers", authMW(canEdit(http.HandlerFunc(customersHandler.Create))))
	mux.Handle("GET /api/customers/{id}", authMW(http.HandlerFunc(customersHandler.Get)))
	mux.Handle("PUT /api/customers/{id}", authMW(canEdit(http.HandlerFunc(customersHandler.Update))))
	mux.Handle("DELETE /api/customers/{id}", authMW(canEdit(http.HandlerFunc(customersHandler.Delete))))
	mux.Handle("GET /api/customers/{id}/locations", authMW(http.HandlerFunc(customersHandler.ListLocations)))
	mux.Handle("POST /api/customers/{id}/locations", authMW(canEdit(http.HandlerFunc(customersHandler.CreateLocation))))
	mux.Handle("GET /api/customer-locations/{id}", authMW(http.HandlerFunc(customersHandler.GetLocation)))
	mux.Handle("PUT /api/customer-locations/{id}", authMW(canEdit(http.HandlerFunc(customersHandler.UpdateLocation))))
	mux.Handle("DELETE /api/customer-locations/{id}", authMW(canEdit(http.HandlerFunc(customersHandler.DeleteLocation))))
	mux.Handle("GET /api/customer-locations/{id}/rates", authMW(http.HandlerFunc(customersHandler.GetRates)))
	mux.Handle("PUT /api/customer-locations/{id}/rates", authMW(canEdit(http.HandlerFunc(customersHandler.PutRates))))

	// Gates.
	mux.Handle("GET /api/gates", authMW(http.HandlerFunc(gatesHandler.List)))
	mux.Handle("POST /api/gates", authMW(canEdit(http.HandlerFunc(gatesHandler.Create))))
	mux.Handle("GET /api/gates/{id}", authMW(http.HandlerFunc(gatesHandler.Get)))
	mux.Handle("PUT /api/gates/{id}", authMW(canEdit(http.HandlerFunc(gatesHandler.Update))))
	mux.Handle("DELETE /api/gates/{id}", authMW(canEdit(http.HandlerFunc(gatesHandler.Delete))))

	// Movements.
	mux.Handle("POST /api/movements/validate", authMW(canMove(http.HandlerFunc(movementsHandler.ValidateScan))))
	mux.Handle("POST /api/movements", authMW(canMove(http.HandlerFunc(movementsHandler.Submit))))
	mux.Handle("GET /api/movements", authMW(http.HandlerFunc(movementsHandler.List)))

	// Rental report.
	mux.Handle("GET /api/rentals", authMW(http.HandlerFunc(rentalsHandler.Report)))

	return mux
}

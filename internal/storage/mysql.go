package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"trip-haven-backend/internal/config"
	"trip-haven-backend/internal/logger"
	"trip-haven-backend/internal/models"

	"github.com/go-sql-driver/mysql"
)

type MySQLStore struct {
	db  *sql.DB
	log *logger.Logger
}

func NewMySQLStore(cfg config.DatabaseConfig, log *logger.Logger) (*MySQLStore, error) {
	log.LogDatabase("CONNECT", "mysql", fmt.Sprintf("Connecting to MySQL at %s:%s", cfg.Host, cfg.Port))

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		log.Error("DATABASE", "Failed to open MySQL connection: "+err.Error())
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MaxLifetime)

	if err := db.Ping(); err != nil {
		log.Error("DATABASE", "Failed to ping MySQL: "+err.Error())
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &MySQLStore{
		db:  db,
		log: log,
	}

	if err := store.initTables(); err != nil {
		log.Error("DATABASE", "Failed to initialize tables: "+err.Error())
		return nil, fmt.Errorf("failed to initialize tables: %w", err)
	}

	log.LogDatabase("SUCCESS", "mysql", "MySQL connection established and tables initialized")
	return store, nil
}

// NewMySQLStoreWithDB wraps an existing connection (tests use sqlmock here).
func NewMySQLStoreWithDB(db *sql.DB, log *logger.Logger) *MySQLStore {
	return &MySQLStore{db: db, log: log}
}

func (s *MySQLStore) initTables() error {
	s.log.LogDatabase("MIGRATE", "mysql", "Creating tables if not exist")

	queries := []string{
		`CREATE TABLE IF NOT EXISTS bookings (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			reference VARCHAR(32) NOT NULL,
			service_type VARCHAR(20) NOT NULL,
			service_id BIGINT NOT NULL,
			service_title VARCHAR(255) NOT NULL,
			customer_name VARCHAR(255) NOT NULL,
			customer_email VARCHAR(255) NOT NULL,
			customer_phone VARCHAR(50) NOT NULL,
			adults INT NOT NULL DEFAULT 0,
			children INT NOT NULL DEFAULT 0,
			infants INT NOT NULL DEFAULT 0,
			base_amount DECIMAL(10,2) NOT NULL DEFAULT 0,
			tax_amount DECIMAL(10,2) NOT NULL DEFAULT 0,
			discount_amount DECIMAL(10,2) NOT NULL DEFAULT 0,
			final_amount DECIMAL(10,2) NOT NULL DEFAULT 0,
			currency VARCHAR(8) NOT NULL DEFAULT 'USD',
			travel_date DATE NULL,
			travel_time VARCHAR(10) NULL,
			pickup_location VARCHAR(255) NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'pending',
			payment_status VARCHAR(20) NOT NULL DEFAULT 'pending',
			special_requests TEXT NULL,
			admin_notes TEXT NULL,
			gateway_name VARCHAR(50) NULL,
			payment_reference VARCHAR(100) NULL,
			gateway_response TEXT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			UNIQUE KEY uniq_reference (reference),
			INDEX idx_status (status),
			INDEX idx_payment_status (payment_status),
			INDEX idx_service (service_type, service_id),
			INDEX idx_created (created_at)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,

		`CREATE TABLE IF NOT EXISTS travelers (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			booking_id BIGINT NOT NULL,
			type VARCHAR(10) NOT NULL,
			title VARCHAR(20) NULL,
			first_name VARCHAR(100) NOT NULL,
			last_name VARCHAR(100) NULL,
			date_of_birth DATE NULL,
			nationality VARCHAR(100) NULL,
			passport_number VARCHAR(50) NULL,
			passport_expiry DATE NULL,
			INDEX idx_booking (booking_id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,

		`CREATE TABLE IF NOT EXISTS payment_gateways (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			name VARCHAR(50) NOT NULL,
			display_name VARCHAR(100) NOT NULL,
			description TEXT NULL,
			protocol VARCHAR(20) NOT NULL,
			enabled BOOLEAN NOT NULL DEFAULT FALSE,
			priority INT NOT NULL DEFAULT 100,
			currencies VARCHAR(255) NULL,
			min_amount DECIMAL(10,2) NOT NULL DEFAULT 0,
			max_amount DECIMAL(10,2) NOT NULL DEFAULT 0,
			api_key VARCHAR(255) NULL,
			api_secret VARCHAR(255) NULL,
			checkout_url VARCHAR(255) NULL,
			instructions TEXT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			UNIQUE KEY uniq_name (name),
			INDEX idx_enabled_priority (enabled, priority)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,

		`CREATE TABLE IF NOT EXISTS payment_sessions (
			session_id VARCHAR(40) PRIMARY KEY,
			booking_id BIGINT NOT NULL,
			booking_reference VARCHAR(32) NOT NULL,
			gateway VARCHAR(50) NOT NULL,
			protocol VARCHAR(20) NOT NULL,
			state VARCHAR(20) NOT NULL,
			amount DECIMAL(10,2) NOT NULL,
			currency VARCHAR(8) NOT NULL,
			gateway_payment_id VARCHAR(100) NULL,
			failure_kind VARCHAR(30) NULL,
			raw_response TEXT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			expires_at TIMESTAMP NULL,
			INDEX idx_booking (booking_id),
			INDEX idx_state (state)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,

		`CREATE TABLE IF NOT EXISTS catalog_items (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			type VARCHAR(20) NOT NULL,
			title VARCHAR(255) NOT NULL,
			description TEXT NULL,
			price_adult DECIMAL(10,2) NOT NULL DEFAULT 0,
			price_child DECIMAL(10,2) NOT NULL DEFAULT 0,
			price_infant DECIMAL(10,2) NOT NULL DEFAULT 0,
			tax_rate DECIMAL(6,4) NOT NULL DEFAULT 0,
			highlights TEXT NULL,
			enabled BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			INDEX idx_type (type),
			INDEX idx_enabled (enabled)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	s.log.LogDatabase("SUCCESS", "mysql", "All tables ready")
	return nil
}

func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}

const bookingColumns = `id, reference, service_type, service_id, service_title,
	customer_name, customer_email, customer_phone, adults, children, infants,
	base_amount, tax_amount, discount_amount, final_amount, currency,
	travel_date, travel_time, pickup_location, status, payment_status,
	special_requests, admin_notes, gateway_name, payment_reference, gateway_response,
	created_at, updated_at`

func (s *MySQLStore) SaveBooking(b *models.Booking) error {
	s.log.LogDatabase("INSERT", "mysql", fmt.Sprintf("Saving booking %s", b.Reference))

	query := `
    INSERT INTO bookings (
        reference, service_type, service_id, service_title,
        customer_name, customer_email, customer_phone, adults, children, infants,
        base_amount, tax_amount, discount_amount, final_amount, currency,
        travel_date, travel_time, pickup_location, status, payment_status,
        special_requests, admin_notes, created_at, updated_at
    ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `

	res, err := s.db.Exec(query,
		b.Reference, b.ServiceType, b.ServiceID, b.ServiceTitle,
		b.CustomerName, b.CustomerEmail, b.CustomerPhone, b.Adults, b.Children, b.Infants,
		b.BaseAmount, b.TaxAmount, b.DiscountAmount, b.FinalAmount, b.Currency,
		b.TravelDate, nullString(b.TravelTime), nullString(b.PickupLocation), b.Status, b.PaymentState,
		nullString(b.SpecialRequests), nullString(b.AdminNotes), b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		if isDuplicateKey(err) {
			s.log.LogDatabase("CONFLICT", "mysql", fmt.Sprintf("Reference %s already taken", b.Reference))
			return ErrDuplicateReference
		}
		s.log.Error("DATABASE", fmt.Sprintf("Failed to save booking %s: %s", b.Reference, err.Error()))
		return fmt.Errorf("failed to save booking: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read booking id: %w", err)
	}
	b.ID = id

	s.log.LogDatabase("SUCCESS", "mysql", fmt.Sprintf("Booking %s saved with id %d", b.Reference, id))
	return nil
}

func (s *MySQLStore) scanBooking(row *sql.Row) (*models.Booking, error) {
	b := &models.Booking{}
	var travelDate sql.NullTime
	var travelTime, pickup, special, notes, gateway, payRef, rawResp sql.NullString

	err := row.Scan(
		&b.ID, &b.Reference, &b.ServiceType, &b.ServiceID, &b.ServiceTitle,
		&b.CustomerName, &b.CustomerEmail, &b.CustomerPhone, &b.Adults, &b.Children, &b.Infants,
		&b.BaseAmount, &b.TaxAmount, &b.DiscountAmount, &b.FinalAmount, &b.Currency,
		&travelDate, &travelTime, &pickup, &b.Status, &b.PaymentState,
		&special, &notes, &gateway, &payRef, &rawResp,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if travelDate.Valid {
		d := travelDate.Time
		b.TravelDate = &d
	}
	b.TravelTime = travelTime.String
	b.PickupLocation = pickup.String
	b.SpecialRequests = special.String
	b.AdminNotes = notes.String
	b.GatewayName = gateway.String
	b.PaymentReference = payRef.String
	b.GatewayResponse = rawResp.String
	return b, nil
}

func (s *MySQLStore) GetBooking(id int64) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	b, err := s.scanBooking(s.db.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrBookingNotFound
		}
		s.log.Error("DATABASE", fmt.Sprintf("Failed to get booking %d: %s", id, err.Error()))
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return b, nil
}

func (s *MySQLStore) GetBookingByReference(reference string) (*models.Booking, error) {
	s.log.LogDatabase("SELECT", "mysql", fmt.Sprintf("Fetching booking %s", reference))

	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE reference = ?`
	b, err := s.scanBooking(s.db.QueryRow(query, reference))
	if err != nil {
		if err == sql.ErrNoRows {
			s.log.LogDatabase("NOT_FOUND", "mysql", fmt.Sprintf("Booking %s not found", reference))
			return nil, ErrBookingNotFound
		}
		s.log.Error("DATABASE", fmt.Sprintf("Failed to get booking %s: %s", reference, err.Error()))
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return b, nil
}

func (s *MySQLStore) ListBookings(filter models.BookingFilter, limit, offset int) ([]*models.Booking, error) {
	s.log.LogDatabase("SELECT", "mysql", fmt.Sprintf("Listing bookings (limit: %d, offset: %d)", limit, offset))

	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE 1=1`
	var args []interface{}

	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
	}
	if filter.PaymentState != "" {
		query += " AND payment_status = ?"
		args = append(args, filter.PaymentState)
	}
	if filter.ServiceType != "" {
		query += " AND service_type = ?"
		args = append(args, filter.ServiceType)
	}
	if filter.From != nil {
		query += " AND created_at >= ?"
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		query += " AND created_at < ?"
		args = append(args, *filter.To)
	}

	query += " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		s.log.Error("DATABASE", "Failed to list bookings: "+err.Error())
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		b := &models.Booking{}
		var travelDate sql.NullTime
		var travelTime, pickup, special, notes, gateway, payRef, rawResp sql.NullString

		err := rows.Scan(
			&b.ID, &b.Reference, &b.ServiceType, &b.ServiceID, &b.ServiceTitle,
			&b.CustomerName, &b.CustomerEmail, &b.CustomerPhone, &b.Adults, &b.Children, &b.Infants,
			&b.BaseAmount, &b.TaxAmount, &b.DiscountAmount, &b.FinalAmount, &b.Currency,
			&travelDate, &travelTime, &pickup, &b.Status, &b.PaymentState,
			&special, &notes, &gateway, &payRef, &rawResp,
			&b.CreatedAt, &b.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		if travelDate.Valid {
			d := travelDate.Time
			b.TravelDate = &d
		}
		b.TravelTime = travelTime.String
		b.PickupLocation = pickup.String
		b.SpecialRequests = special.String
		b.AdminNotes = notes.String
		b.GatewayName = gateway.String
		b.PaymentReference = payRef.String
		b.GatewayResponse = rawResp.String
		bookings = append(bookings, b)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return bookings, nil
}

func (s *MySQLStore) UpdateBookingStatus(id int64, status models.BookingStatus) error {
	s.log.LogDatabase("UPDATE", "mysql", fmt.Sprintf("Transitioning booking %d to %s", id, status))

	var current models.BookingStatus
	err := s.db.QueryRow(`SELECT status FROM bookings WHERE id = ?`, id).Scan(&current)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrBookingNotFound
		}
		return fmt.Errorf("failed to read booking status: %w", err)
	}

	if !ValidBookingTransition(current, status) {
		s.log.LogSecurity("TRANSITION_REJECTED", fmt.Sprintf("booking %d: %s -> %s", id, current, status))
		return ErrInvalidTransition
	}

	// WHERE clause repeats the current status so a concurrent admin update
	// cannot slip past the guard.
	res, err := s.db.Exec(`UPDATE bookings SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		status, time.Now(), id, current)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrInvalidTransition
	}

	s.log.LogDatabase("SUCCESS", "mysql", fmt.Sprintf("Booking %d is now %s", id, status))
	return nil
}

func (s *MySQLStore) UpdatePaymentState(id int64, state models.PaymentState) error {
	s.log.LogDatabase("UPDATE", "mysql", fmt.Sprintf("Transitioning payment state of booking %d to %s", id, state))

	var current models.PaymentState
	err := s.db.QueryRow(`SELECT payment_status FROM bookings WHERE id = ?`, id).Scan(&current)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrBookingNotFound
		}
		return fmt.Errorf("failed to read payment state: %w", err)
	}

	if !ValidPaymentTransition(current, state) {
		s.log.LogSecurity("TRANSITION_REJECTED", fmt.Sprintf("booking %d payment: %s -> %s", id, current, state))
		return ErrInvalidTransition
	}

	res, err := s.db.Exec(`UPDATE bookings SET payment_status = ?, updated_at = ? WHERE id = ? AND payment_status = ?`,
		state, time.Now(), id, current)
	if err != nil {
		return fmt.Errorf("failed to update payment state: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrInvalidTransition
	}

	s.log.LogDatabase("SUCCESS", "mysql", fmt.Sprintf("Booking %d payment state is now %s", id, state))
	return nil
}

func (s *MySQLStore) UpdatePaymentTrace(id int64, gateway, paymentRef, rawResponse string) error {
	_, err := s.db.Exec(`UPDATE bookings SET gateway_name = ?, payment_reference = ?, gateway_response = ?, updated_at = ? WHERE id = ?`,
		gateway, paymentRef, rawResponse, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update payment trace: %w", err)
	}
	return nil
}

func (s *MySQLStore) UpdateAdminNotes(id int64, notes string) error {
	_, err := s.db.Exec(`UPDATE bookings SET admin_notes = ?, updated_at = ? WHERE id = ?`,
		notes, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update admin notes: %w", err)
	}
	return nil
}

func (s *MySQLStore) SaveTravelers(bookingID int64, travelers []models.Traveler) error {
	s.log.LogDatabase("INSERT", "mysql", fmt.Sprintf("Saving %d travelers for booking %d", len(travelers), bookingID))

	query := `
    INSERT INTO travelers (booking_id, type, title, first_name, last_name, date_of_birth, nationality, passport_number, passport_expiry)
    VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
    `

	for _, tr := range travelers {
		_, err := s.db.Exec(query,
			bookingID, tr.Type, nullString(tr.Title), tr.FirstName, nullString(tr.LastName),
			tr.DateOfBirth, nullString(tr.Nationality), nullString(tr.PassportNumber), tr.PassportExpiry,
		)
		if err != nil {
			s.log.Error("DATABASE", fmt.Sprintf("Failed to save traveler for booking %d: %s", bookingID, err.Error()))
			return fmt.Errorf("failed to save traveler: %w", err)
		}
	}

	s.log.LogDatabase("SUCCESS", "mysql", fmt.Sprintf("%d travelers saved for booking %d", len(travelers), bookingID))
	return nil
}

func (s *MySQLStore) GetTravelers(bookingID int64) ([]models.Traveler, error) {
	query := `
    SELECT id, booking_id, type, title, first_name, last_name, date_of_birth, nationality, passport_number, passport_expiry
    FROM travelers WHERE booking_id = ? ORDER BY id
    `

	rows, err := s.db.Query(query, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list travelers: %w", err)
	}
	defer rows.Close()

	var travelers []models.Traveler
	for rows.Next() {
		var tr models.Traveler
		var title, lastName, nationality, passport sql.NullString
		var dob, expiry sql.NullTime

		err := rows.Scan(&tr.ID, &tr.BookingID, &tr.Type, &title, &tr.FirstName, &lastName, &dob, &nationality, &passport, &expiry)
		if err != nil {
			return nil, fmt.Errorf("failed to scan traveler: %w", err)
		}
		tr.Title = title.String
		tr.LastName = lastName.String
		tr.Nationality = nationality.String
		tr.PassportNumber = passport.String
		if dob.Valid {
			d := dob.Time
			tr.DateOfBirth = &d
		}
		if expiry.Valid {
			e := expiry.Time
			tr.PassportExpiry = &e
		}
		travelers = append(travelers, tr)
	}
	return travelers, rows.Err()
}

const gatewayColumns = `id, name, display_name, description, protocol, enabled, priority,
	currencies, min_amount, max_amount, api_key, api_secret, checkout_url, instructions, created_at, updated_at`

func (s *MySQLStore) scanGateway(scan func(dest ...interface{}) error) (*models.PaymentGateway, error) {
	g := &models.PaymentGateway{}
	var description, currencies, apiKey, apiSecret, checkoutURL, instructions sql.NullString

	err := scan(
		&g.ID, &g.Name, &g.DisplayName, &description, &g.Protocol, &g.Enabled, &g.Priority,
		&currencies, &g.MinAmount, &g.MaxAmount, &apiKey, &apiSecret, &checkoutURL, &instructions,
		&g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	g.Description = description.String
	g.Currencies = currencies.String
	g.APIKey = apiKey.String
	g.APISecret = apiSecret.String
	g.CheckoutURL = checkoutURL.String
	g.Instructions = instructions.String
	return g, nil
}

func (s *MySQLStore) ListGateways() ([]*models.PaymentGateway, error) {
	rows, err := s.db.Query(`SELECT ` + gatewayColumns + ` FROM payment_gateways ORDER BY priority ASC, name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list gateways: %w", err)
	}
	defer rows.Close()

	var gateways []*models.PaymentGateway
	for rows.Next() {
		g, err := s.scanGateway(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan gateway: %w", err)
		}
		gateways = append(gateways, g)
	}
	return gateways, rows.Err()
}

func (s *MySQLStore) GetGatewayByName(name string) (*models.PaymentGateway, error) {
	row := s.db.QueryRow(`SELECT `+gatewayColumns+` FROM payment_gateways WHERE name = ?`, name)
	g, err := s.scanGateway(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrGatewayNotFound
		}
		return nil, fmt.Errorf("failed to get gateway: %w", err)
	}
	return g, nil
}

func (s *MySQLStore) SaveGateway(g *models.PaymentGateway) error {
	s.log.LogDatabase("INSERT", "mysql", fmt.Sprintf("Saving gateway %s", g.Name))

	query := `
    INSERT INTO payment_gateways (name, display_name, description, protocol, enabled, priority,
        currencies, min_amount, max_amount, api_key, api_secret, checkout_url, instructions, created_at, updated_at)
    VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `

	res, err := s.db.Exec(query,
		g.Name, g.DisplayName, nullString(g.Description), g.Protocol, g.Enabled, g.Priority,
		nullString(g.Currencies), g.MinAmount, g.MaxAmount, nullString(g.APIKey), nullString(g.APISecret),
		nullString(g.CheckoutURL), nullString(g.Instructions), g.CreatedAt, g.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save gateway: %w", err)
	}
	g.ID, _ = res.LastInsertId()
	return nil
}

func (s *MySQLStore) UpdateGateway(g *models.PaymentGateway) error {
	query := `
    UPDATE payment_gateways SET display_name = ?, description = ?, protocol = ?, enabled = ?, priority = ?,
        currencies = ?, min_amount = ?, max_amount = ?, api_key = ?, api_secret = ?, checkout_url = ?,
        instructions = ?, updated_at = ?
    WHERE id = ?
    `

	_, err := s.db.Exec(query,
		g.DisplayName, nullString(g.Description), g.Protocol, g.Enabled, g.Priority,
		nullString(g.Currencies), g.MinAmount, g.MaxAmount, nullString(g.APIKey), nullString(g.APISecret),
		nullString(g.CheckoutURL), nullString(g.Instructions), time.Now(), g.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update gateway: %w", err)
	}
	return nil
}

func (s *MySQLStore) DeleteGateway(id int64) error {
	res, err := s.db.Exec(`DELETE FROM payment_gateways WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete gateway: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrGatewayNotFound
	}
	return nil
}

const sessionColumns = `session_id, booking_id, booking_reference, gateway, protocol, state,
	amount, currency, gateway_payment_id, failure_kind, raw_response, created_at, updated_at, expires_at`

func (s *MySQLStore) SaveSession(sess *models.PaymentSession) error {
	s.log.LogDatabase("INSERT", "mysql", fmt.Sprintf("Saving payment session %s", sess.SessionID))

	query := `
    INSERT INTO payment_sessions (` + sessionColumns + `)
    VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `

	_, err := s.db.Exec(query,
		sess.SessionID, sess.BookingID, sess.BookingReference, sess.Gateway, sess.Protocol, sess.State,
		sess.Amount, sess.Currency, nullString(sess.GatewayPaymentID), nullString(string(sess.FailureKind)),
		nullString(sess.RawResponse), sess.CreatedAt, sess.UpdatedAt, sess.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save payment session: %w", err)
	}
	return nil
}

func (s *MySQLStore) scanSession(scan func(dest ...interface{}) error) (*models.PaymentSession, error) {
	sess := &models.PaymentSession{}
	var paymentID, failureKind, rawResp sql.NullString
	var expires sql.NullTime

	err := scan(
		&sess.SessionID, &sess.BookingID, &sess.BookingReference, &sess.Gateway, &sess.Protocol, &sess.State,
		&sess.Amount, &sess.Currency, &paymentID, &failureKind, &rawResp,
		&sess.CreatedAt, &sess.UpdatedAt, &expires,
	)
	if err != nil {
		return nil, err
	}
	sess.GatewayPaymentID = paymentID.String
	sess.FailureKind = models.FailureKind(failureKind.String)
	sess.RawResponse = rawResp.String
	if expires.Valid {
		sess.ExpiresAt = expires.Time
	}
	return sess, nil
}

func (s *MySQLStore) GetSession(id string) (*models.PaymentSession, error) {
	row := s.db.QueryRow(`SELECT `+sessionColumns+` FROM payment_sessions WHERE session_id = ?`, id)
	sess, err := s.scanSession(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get payment session: %w", err)
	}
	return sess, nil
}

func (s *MySQLStore) UpdateSession(sess *models.PaymentSession) error {
	query := `
    UPDATE payment_sessions SET state = ?, gateway_payment_id = ?, failure_kind = ?, raw_response = ?, updated_at = ?
    WHERE session_id = ?
    `

	_, err := s.db.Exec(query,
		sess.State, nullString(sess.GatewayPaymentID), nullString(string(sess.FailureKind)),
		nullString(sess.RawResponse), time.Now(), sess.SessionID,
	)
	if err != nil {
		return fmt.Errorf("failed to update payment session: %w", err)
	}
	return nil
}

func (s *MySQLStore) GetLatestSessionByBooking(bookingID int64) (*models.PaymentSession, error) {
	row := s.db.QueryRow(`SELECT `+sessionColumns+` FROM payment_sessions WHERE booking_id = ? ORDER BY created_at DESC LIMIT 1`, bookingID)
	sess, err := s.scanSession(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get payment session: %w", err)
	}
	return sess, nil
}

const catalogColumns = `id, type, title, description, price_adult, price_child, price_infant,
	tax_rate, highlights, enabled, created_at, updated_at`

func (s *MySQLStore) SaveCatalogItem(item *models.CatalogItem) error {
	query := `
    INSERT INTO catalog_items (type, title, description, price_adult, price_child, price_infant,
        tax_rate, highlights, enabled, created_at, updated_at)
    VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `

	res, err := s.db.Exec(query,
		item.Type, item.Title, nullString(item.Description), item.PriceAdult, item.PriceChild, item.PriceInfant,
		item.TaxRate, nullString(strings.Join(item.Highlights, ";")), item.Enabled, item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save catalog item: %w", err)
	}
	item.ID, _ = res.LastInsertId()
	return nil
}

func (s *MySQLStore) scanCatalogItem(scan func(dest ...interface{}) error) (*models.CatalogItem, error) {
	item := &models.CatalogItem{}
	var description, highlights sql.NullString

	err := scan(
		&item.ID, &item.Type, &item.Title, &description, &item.PriceAdult, &item.PriceChild, &item.PriceInfant,
		&item.TaxRate, &highlights, &item.Enabled, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	item.Description = description.String
	if highlights.String != "" {
		item.Highlights = strings.Split(highlights.String, ";")
	}
	return item, nil
}

func (s *MySQLStore) GetCatalogItem(id int64) (*models.CatalogItem, error) {
	row := s.db.QueryRow(`SELECT `+catalogColumns+` FROM catalog_items WHERE id = ?`, id)
	item, err := s.scanCatalogItem(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrCatalogItemNotFound
		}
		return nil, fmt.Errorf("failed to get catalog item: %w", err)
	}
	return item, nil
}

func (s *MySQLStore) ListCatalogItems(serviceType string) ([]*models.CatalogItem, error) {
	query := `SELECT ` + catalogColumns + ` FROM catalog_items`
	var args []interface{}
	if serviceType != "" {
		query += ` WHERE type = ?`
		args = append(args, serviceType)
	}
	query += ` ORDER BY title ASC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list catalog items: %w", err)
	}
	defer rows.Close()

	var items []*models.CatalogItem
	for rows.Next() {
		item, err := s.scanCatalogItem(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan catalog item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *MySQLStore) UpdateCatalogItem(item *models.CatalogItem) error {
	query := `
    UPDATE catalog_items SET type = ?, title = ?, description = ?, price_adult = ?, price_child = ?,
        price_infant = ?, tax_rate = ?, highlights = ?, enabled = ?, updated_at = ?
    WHERE id = ?
    `

	res, err := s.db.Exec(query,
		item.Type, item.Title, nullString(item.Description), item.PriceAdult, item.PriceChild,
		item.PriceInfant, item.TaxRate, nullString(strings.Join(item.Highlights, ";")), item.Enabled,
		time.Now(), item.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update catalog item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrCatalogItemNotFound
	}
	return nil
}

func (s *MySQLStore) DeleteCatalogItem(id int64) error {
	res, err := s.db.Exec(`DELETE FROM catalog_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete catalog item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrCatalogItemNotFound
	}
	return nil
}

func (s *MySQLStore) Close() error {
	s.log.LogDatabase("CLOSE", "mysql", "Closing MySQL connection")
	return s.db.Close()
}

func (s *MySQLStore) HealthCheck() error {
	return s.db.Ping()
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

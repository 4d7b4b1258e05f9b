package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/AnshRaj112/travelnest-backend/internal/models"
)

// PostgresInquiryStore keeps booking inquiries and contact messages in
// Postgres, in the booking_inquiries and contact_messages tables.
type PostgresInquiryStore struct {
	db *sql.DB
}

func NewPostgresInquiryStore(db *sql.DB) *PostgresInquiryStore {
	return &PostgresInquiryStore{db: db}
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}

func (s *PostgresInquiryStore) CreateInquiry(ctx context.Context, inq *models.Inquiry) error {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO booking_inquiries (id, reference, created_at, name, email, phone, package_id, package_title,
			travel_date, adults, children, message, status, ip_address)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`, inq.ID, inq.Reference, inq.CreatedAt, inq.Name, inq.Email, inq.Phone, nullString(inq.PackageID),
		nullString(inq.PackageTitle), nullTime(inq.TravelDate), inq.Adults, inq.Children,
		nullString(inq.Message), string(inq.Status), nullString(inq.IPAddress))
	return err
}

// ListInquiries returns a page of inquiries, newest first. An empty status
// matches every inquiry.
func (s *PostgresInquiryStore) ListInquiries(ctx context.Context, status models.InquiryStatus, page, limit int64) ([]models.Inquiry, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	page, limit = normalizePage(page, limit)

	var total int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM booking_inquiries WHERE ($1 = '' OR status = $1)`, string(status),
	).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, reference, created_at, name, email, phone, package_id, package_title,
			travel_date, adults, children, message, status, ip_address
		FROM booking_inquiries
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, string(status), limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	inquiries := []models.Inquiry{}
	for rows.Next() {
		var (
			inq                                      models.Inquiry
			packageID, packageTitle, message, ipAddr sql.NullString
			travelDate                               sql.NullTime
			st                                       string
		)
		if err := rows.Scan(&inq.ID, &inq.Reference, &inq.CreatedAt, &inq.Name, &inq.Email, &inq.Phone,
			&packageID, &packageTitle, &travelDate, &inq.Adults, &inq.Children, &message, &st, &ipAddr); err != nil {
			return nil, 0, err
		}
		inq.PackageID = packageID.String
		inq.PackageTitle = packageTitle.String
		inq.Message = message.String
		inq.IPAddress = ipAddr.String
		inq.Status = models.InquiryStatus(st)
		if travelDate.Valid {
			d := travelDate.Time
			inq.TravelDate = &d
		}
		inquiries = append(inquiries, inq)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return inquiries, total, nil
}

func (s *PostgresInquiryStore) UpdateInquiryStatus(ctx context.Context, id string, status models.InquiryStatus) error {
	return s.execOne(ctx, models.ErrInquiryNotFound,
		`UPDATE booking_inquiries SET status = $2 WHERE id = $1`, id, string(status))
}

func (s *PostgresInquiryStore) DeleteInquiry(ctx context.Context, id string) error {
	return s.execOne(ctx, models.ErrInquiryNotFound, `DELETE FROM booking_inquiries WHERE id = $1`, id)
}

func (s *PostgresInquiryStore) CreateContact(ctx context.Context, msg *models.ContactMessage) error {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO contact_messages (id, created_at, name, email, phone, subject, message, ip_address)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, msg.ID, msg.CreatedAt, msg.Name, msg.Email, nullString(msg.Phone), nullString(msg.Subject),
		msg.Message, nullString(msg.IPAddress))
	return err
}

func (s *PostgresInquiryStore) ListContacts(ctx context.Context, page, limit int64) ([]models.ContactMessage, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	page, limit = normalizePage(page, limit)

	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM contact_messages`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, name, email, phone, subject, message, ip_address
		FROM contact_messages
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	contacts := []models.ContactMessage{}
	for rows.Next() {
		var (
			msg                    models.ContactMessage
			phone, subject, ipAddr sql.NullString
		)
		if err := rows.Scan(&msg.ID, &msg.CreatedAt, &msg.Name, &msg.Email, &phone, &subject, &msg.Message, &ipAddr); err != nil {
			return nil, 0, err
		}
		msg.Phone = phone.String
		msg.Subject = subject.String
		msg.IPAddress = ipAddr.String
		contacts = append(contacts, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return contacts, total, nil
}

func (s *PostgresInquiryStore) DeleteContact(ctx context.Context, id string) error {
	return s.execOne(ctx, models.ErrContactNotFound, `DELETE FROM contact_messages WHERE id = $1`, id)
}

// execOne runs a statement that must touch exactly one row and returns
// notFound when it touched none.
func (s *PostgresInquiryStore) execOne(ctx context.Context, notFound error, query string, args ...interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

package services

import (
	"bytes"
	"fmt"
	"image/color"
	"os"
	"strings"
	"time"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/google/uuid"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"gorm.io/gorm"

	"github.com/sorosurance/sorosurance-backend/internal/clients/gcp"
	paymentrepo "github.com/sorosurance/sorosurance-backend/internal/data/repos/payments"
	userrepo "github.com/sorosurance/sorosurance-backend/internal/data/repos/user"
	paytypes "github.com/sorosurance/sorosurance-backend/internal/domain/payments"
	"github.com/sorosurance/sorosurance-backend/internal/pkg/errors"
	"github.com/sorosurance/sorosurance-backend/internal/platform/dbctx"
	"github.com/sorosurance/sorosurance-backend/internal/platform/logger"
)

// ReceiptService renders a PNG receipt for a completed payment and
// uploads it, returning the public URL. Rendering is deterministic so
// repeated calls for the same payment overwrite the same object.
type ReceiptService interface {
	GenerateForPayment(dbc dbctx.Context, paymentID uuid.UUID) (string, error)
	RenderReceipt(payment *paytypes.Payment, customerName string) (bytes.Buffer, error)
}

type receiptService struct {
	db       *gorm.DB
	log      *logger.Logger
	payments paymentrepo.PaymentRepo
	users    userrepo.UserRepo
	bucket   gcp.BucketService

	titleFace font.Face
	bodyFace  font.Face
	smallFace font.Face
}

func NewReceiptService(
	db *gorm.DB,
	baseLog *logger.Logger,
	payments paymentrepo.PaymentRepo,
	users userrepo.UserRepo,
	bucket gcp.BucketService,
) (ReceiptService, error) {
	serviceLog := baseLog.With("service", "ReceiptService")

	fontBytes := goregular.TTF
	if path := strings.TrimSpace(os.Getenv("RECEIPT_FONT")); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read receipt font: %w", err)
		}
		fontBytes = raw
		serviceLog.Info("loaded receipt font", "path", path)
	}

	parsed, err := truetype.Parse(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("parse receipt font: %w", err)
	}
	face := func(size float64) font.Face {
		return truetype.NewFace(parsed, &truetype.Options{
			Size:    size,
			DPI:     72,
			Hinting: font.HintingFull,
		})
	}

	return &receiptService{
		db:        db,
		log:       serviceLog,
		payments:  payments,
		users:     users,
		bucket:    bucket,
		titleFace: face(36),
		bodyFace:  face(22),
		smallFace: face(16),
	}, nil
}

func (rs *receiptService) GenerateForPayment(dbc dbctx.Context, paymentID uuid.UUID) (string, error) {
	found, err := rs.payments.GetByIDs(dbc, []uuid.UUID{paymentID})
	if err != nil {
		return "", err
	}
	if len(found) == 0 {
		return "", errors.ErrNotFound
	}
	payment := found[0]
	if payment.Status != paytypes.StatusCompleted {
		return "", fmt.Errorf("payment %s is not completed: %w", payment.PaymentReference, errors.ErrConflict)
	}

	name := "Sorosurance Customer"
	if users, err := rs.users.GetByIDs(dbc, []uuid.UUID{payment.UserID}); err == nil && len(users) > 0 {
		if n := strings.TrimSpace(users[0].FullName()); n != "" {
			name = n
		}
	}

	buf, err := rs.RenderReceipt(payment, name)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("receipts/%s/%s.png", payment.UserID, payment.PaymentReference)
	if err := rs.bucket.UploadFile(dbc, gcp.BucketCategoryReceipt, key, bytes.NewReader(buf.Bytes())); err != nil {
		return "", fmt.Errorf("upload receipt: %w", err)
	}
	url := rs.bucket.GetPublicURL(gcp.BucketCategoryReceipt, key)

	rs.log.Info("receipt generated", "payment_reference", payment.PaymentReference, "key", key)
	return url, nil
}

func (rs *receiptService) RenderReceipt(payment *paytypes.Payment, customerName string) (bytes.Buffer, error) {
	const (
		width  = 640
		height = 520
		margin = 48.0
	)

	dc := gg.NewContext(width, height)

	dc.SetColor(color.White)
	dc.Clear()

	// Brand band across the top
	dc.SetRGB255(0x0B, 0x3D, 0x2E)
	dc.DrawRectangle(0, 0, width, 110)
	dc.Fill()

	dc.SetFontFace(rs.titleFace)
	dc.SetColor(color.White)
	dc.DrawString("Sorosurance", margin, 68)
	dc.SetFontFace(rs.smallFace)
	dc.DrawString("Payment Receipt", margin, 94)

	dc.SetColor(color.NRGBA{R: 0x22, G: 0x22, B: 0x22, A: 0xFF})
	dc.SetFontFace(rs.bodyFace)

	completedAt := payment.InitiatedAt
	if payment.CompletedAt != nil {
		completedAt = *payment.CompletedAt
	}

	rows := [][2]string{
		{"Reference", payment.PaymentReference},
		{"Customer", customerName},
		{"Type", receiptTypeLabel(payment.PaymentType)},
		{"Amount", fmt.Sprintf("%s %.2f", payment.Currency, payment.Amount)},
		{"Gateway", payment.PaymentGateway},
		{"Paid at", completedAt.Format("02 Jan 2006 15:04 MST")},
		{"Status", strings.ToUpper(payment.Status)},
	}

	y := 160.0
	for _, row := range rows {
		dc.SetFontFace(rs.smallFace)
		dc.SetRGB255(0x77, 0x77, 0x77)
		dc.DrawString(row[0], margin, y)

		dc.SetFontFace(rs.bodyFace)
		dc.SetRGB255(0x22, 0x22, 0x22)
		dc.DrawString(row[1], margin+160, y)
		y += 44
	}

	dc.SetRGB255(0xDD, 0xDD, 0xDD)
	dc.DrawLine(margin, y, width-margin, y)
	dc.Stroke()

	dc.SetFontFace(rs.smallFace)
	dc.SetRGB255(0x99, 0x99, 0x99)
	dc.DrawString(fmt.Sprintf("Generated %s", time.Now().Format("02 Jan 2006")), margin, y+36)
	dc.DrawString("Keep this receipt for your records.", margin, y+58)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return buf, fmt.Errorf("encode receipt png: %w", err)
	}
	return buf, nil
}

func receiptTypeLabel(paymentType string) string {
	switch paymentType {
	case paytypes.TypePremium:
		return "Premium payment"
	case paytypes.TypeRenewal:
		return "Policy renewal"
	case paytypes.TypeClaim:
		return "Claim payout"
	default:
		return "Payment"
	}
}

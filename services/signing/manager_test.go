package signing

import (
	"errors"
	"testing"
	"time"

	"property-sales/database"
	"property-sales/domainerr"
	documentModel "property-sales/models/document"
	signingModel "property-sales/models/signing"
	"property-sales/services/storage"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupManager(t *testing.T) (*Manager, *gorm.DB) {
	t.Helper()
	t.Setenv("SIGNING_TOKEN_SALT", "test-salt")
	t.Setenv("SIGNING_BASE_URL", "https://sales.example.com")

	db, err := gorm.Open(sqlite.Open("file:signing_"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	err = db.AutoMigrate(&signingModel.SigningLink{}, &documentModel.ReservationForm{}, &documentModel.Spa{})
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := database.EnsureSigningLinkIndexes(db); err != nil {
		t.Fatalf("indexes: %v", err)
	}

	files := storage.NewLocalFileStore(t.TempDir())
	return NewManager(db, files), db
}

func issueOne(t *testing.T, m *Manager, refID uint, email string) IssuedLink {
	t.Helper()
	issued, err := m.Issue(IssueInput{
		RefType:      documentModel.TypeReservationForm,
		RefID:        refID,
		DocumentType: documentModel.TypeReservationForm,
		Recipients:   []Recipient{{Name: "Buyer", Email: email}},
		CreatedBy:    "agent",
	})
	require.NoError(t, err)
	require.Len(t, issued, 1)
	return issued[0]
}

func TestIssueStoresOnlyHashedToken(t *testing.T) {
	m, db := setupManager(t)

	il := issueOne(t, m, 1, "buyer@example.com")
	require.NotEmpty(t, il.Token)
	require.Contains(t, il.URL, "/sign/"+il.Token)

	var link signingModel.SigningLink
	require.NoError(t, db.First(&link, il.Link.ID).Error)
	require.NotEqual(t, il.Token, link.TokenHash)
	require.Equal(t, HashToken(il.Token), link.TokenHash)
	require.Equal(t, signingModel.LinkStatusPending, link.Status)
}

func TestIssueSupersedesPendingLinkForSameRecipient(t *testing.T) {
	m, db := setupManager(t)

	first := issueOne(t, m, 1, "buyer@example.com")
	second := issueOne(t, m, 1, "buyer@example.com")

	var old signingModel.SigningLink
	require.NoError(t, db.First(&old, first.Link.ID).Error)
	require.Equal(t, signingModel.LinkStatusExpired, old.Status)

	// The superseded token is dead even though it was never used.
	_, err := m.ConsumeOnSubmit(first.Token, "1.2.3.4", "test-agent")
	require.Error(t, err)

	// The replacement still works.
	link, err := m.ConsumeOnSubmit(second.Token, "1.2.3.4", "test-agent")
	require.NoError(t, err)
	require.True(t, link.IsSigned())
}

func TestIssueDoesNotTouchOtherRecipients(t *testing.T) {
	m, db := setupManager(t)

	a := issueOne(t, m, 1, "a@example.com")
	issueOne(t, m, 1, "b@example.com")

	var link signingModel.SigningLink
	require.NoError(t, db.First(&link, a.Link.ID).Error)
	require.Equal(t, signingModel.LinkStatusPending, link.Status)
}

func TestIssueRequiresRecipients(t *testing.T) {
	m, _ := setupManager(t)

	_, err := m.Issue(IssueInput{
		RefType:      documentModel.TypeReservationForm,
		RefID:        1,
		DocumentType: documentModel.TypeReservationForm,
		CreatedBy:    "agent",
	})
	require.Error(t, err)

	var conflict *domainerr.ConflictError
	require.True(t, errors.As(err, &conflict))
}

func TestPendingUniquenessEnforcedByIndex(t *testing.T) {
	m, db := setupManager(t)

	issueOne(t, m, 1, "buyer@example.com")

	// A writer that skips the supersede step cannot create a second pending
	// link for the same documentable and recipient.
	dup := signingModel.SigningLink{
		RefType:        documentModel.TypeReservationForm,
		RefID:          1,
		DocumentType:   documentModel.TypeReservationForm,
		RecipientName:  "Buyer",
		RecipientEmail: "buyer@example.com",
		TokenHash:      HashToken("some-other-token"),
		Status:         signingModel.LinkStatusPending,
		CreatedBy:      "agent",
	}
	require.Error(t, db.Create(&dup).Error)

	// Non-pending rows for the same recipient are outside the guard.
	dup.ID = 0
	dup.Status = signingModel.LinkStatusExpired
	require.NoError(t, db.Create(&dup).Error)

	// Issue itself still works: it supersedes before inserting.
	issueOne(t, m, 1, "buyer@example.com")
}

func TestConsumeIsSingleUse(t *testing.T) {
	m, _ := setupManager(t)

	il := issueOne(t, m, 1, "buyer@example.com")

	link, err := m.ConsumeOnSubmit(il.Token, "10.0.0.1", "Mozilla/5.0")
	require.NoError(t, err)
	require.NotNil(t, link.SignedAt)
	require.Equal(t, "10.0.0.1", *link.SignedIP)
	require.Equal(t, "Mozilla/5.0", *link.SignedUserAgent)
	require.Equal(t, signingModel.LinkStatusExpired, link.Status)

	_, err = m.ConsumeOnSubmit(il.Token, "10.0.0.1", "Mozilla/5.0")
	require.Error(t, err)

	var conflict *domainerr.ConflictError
	require.True(t, errors.As(err, &conflict))
}

func TestConsumeUnknownTokenIsNotFound(t *testing.T) {
	m, _ := setupManager(t)

	_, err := m.ConsumeOnSubmit("no-such-token", "10.0.0.1", "test")
	require.Error(t, err)

	var notFound *domainerr.NotFoundError
	require.True(t, errors.As(err, &notFound))
}

func TestConsumeExpiredWindow(t *testing.T) {
	m, _ := setupManager(t)

	past := time.Now().Add(-time.Hour)
	issued, err := m.Issue(IssueInput{
		RefType:      documentModel.TypeReservationForm,
		RefID:        1,
		DocumentType: documentModel.TypeReservationForm,
		Recipients:   []Recipient{{Name: "Buyer", Email: "late@example.com"}},
		ExpiresAt:    &past,
		CreatedBy:    "agent",
	})
	require.NoError(t, err)

	_, err = m.ConsumeOnSubmit(issued[0].Token, "10.0.0.1", "test")
	require.Error(t, err)

	link, err := m.Lookup(issued[0].Token)
	require.NoError(t, err)
	require.Equal(t, signingModel.LinkStatusExpired, link.Status)
	require.False(t, link.IsSigned())
}

func TestDownloadVariants(t *testing.T) {
	m, db := setupManager(t)

	_, err := m.Files.Store([]byte("original content"), "rf/original.html")
	require.NoError(t, err)
	_, err = m.Files.Store([]byte("signed content"), "rf/signed.pdf")
	require.NoError(t, err)

	signedPath := "rf/signed.pdf"
	rf := documentModel.ReservationForm{
		BookingID: 1, Status: documentModel.DocumentStatusSigned,
		StatusChangedAt: time.Now(), FilePath: "rf/original.html",
		SignedFilePath: &signedPath, CreatedBy: "agent",
	}
	require.NoError(t, db.Create(&rf).Error)

	il := issueOne(t, m, rf.ID, "buyer@example.com")

	data, _, err := m.Download(il.Token, "original")
	require.NoError(t, err)
	require.Equal(t, "original content", string(data))

	data, _, err = m.Download(il.Token, "signed")
	require.NoError(t, err)
	require.Equal(t, "signed content", string(data))

	data, _, err = m.Download(il.Token, "latest")
	require.NoError(t, err)
	require.Equal(t, "signed content", string(data))
}

func TestDownloadFailsClosed(t *testing.T) {
	m, db := setupManager(t)

	rf := documentModel.ReservationForm{
		BookingID: 1, Status: documentModel.DocumentStatusPending,
		StatusChangedAt: time.Now(), FilePath: "rf/missing.html", CreatedBy: "agent",
	}
	require.NoError(t, db.Create(&rf).Error)

	il := issueOne(t, m, rf.ID, "buyer@example.com")

	// File path recorded but absent from storage.
	_, _, err := m.Download(il.Token, "latest")
	var notFound *domainerr.NotFoundError
	require.True(t, errors.As(err, &notFound))

	// No signed copy yet.
	_, _, err = m.Download(il.Token, "signed")
	require.True(t, errors.As(err, &notFound))

	// Cancelled links behave as if they never existed.
	require.NoError(t, m.Cancel(documentModel.TypeReservationForm, rf.ID))
	_, _, err = m.Download(il.Token, "latest")
	require.True(t, errors.As(err, &notFound))
}

package app

import (
	"context"
	"io"
	"log"
	"net/http"
	"path"
	"strings"
	"time"

	"coscribe/api/internal/access"
	"coscribe/api/internal/attachments"
	"coscribe/api/internal/auth"
	"coscribe/api/internal/config"
	"coscribe/api/internal/email"
	"coscribe/api/internal/export"
	"coscribe/api/internal/history"
	"coscribe/api/internal/realtime"
	"coscribe/api/internal/search"
	"coscribe/api/internal/session"
	"coscribe/api/internal/store"
	"coscribe/api/internal/util"
)

type Session struct {
	Token        string
	RefreshToken string
	UserID       string
	UserName     string
	Email        string
	AvatarURL    string
	JTI          string
	ExpiresAt    time.Time
}

type dataStore interface {
	EnsureUserByGoogle(context.Context, store.User) (store.User, error)
	GetUserByID(context.Context, string) (store.User, error)
	GetUserByEmail(context.Context, string) (store.User, error)
	CreateDocument(context.Context, store.Document) (store.Document, error)
	GetDocument(context.Context, string) (store.Document, error)
	UpdateDocument(context.Context, string, string, string) (store.Document, error)
	ListAccessGrants(context.Context, int64) ([]store.AccessGrant, error)
	ListDocumentUsers(context.Context, int64) ([]store.AccessUser, error)
	GrantAccess(context.Context, int64, string, string) error
	RevokeAccess(context.Context, int64, string) error
	DeleteDocumentCascade(context.Context, int64) error
	RecentDocuments(context.Context, string, int) ([]store.Document, error)
	SharedDocuments(context.Context, string, int) ([]store.Document, error)
	InsertFeedback(context.Context, store.Feedback) (store.Feedback, error)
	ListFeedback(context.Context, string) ([]store.Feedback, error)
	InsertTemplate(context.Context, store.Template) error
	GetTemplate(context.Context, string) (store.Template, error)
	ListTemplates(context.Context) ([]store.Template, error)
	SaveRefreshSession(context.Context, string, string, time.Time) error
	LookupRefreshSession(context.Context, string) (store.User, error)
	RevokeRefreshSession(context.Context, string) error
	Ping(context.Context) error
}

// sessionStore holds refresh tokens. Redis when configured, otherwise
// the Postgres store satisfies it.
type sessionStore interface {
	SaveRefreshSession(context.Context, string, string, time.Time) error
	LookupRefreshSession(context.Context, string) (store.User, error)
	RevokeRefreshSession(context.Context, string) error
}

type googleVerifier interface {
	Verify(ctx context.Context, rawToken string) (auth.GoogleIdentity, error)
}

type notifier interface {
	IsConfigured() bool
	SendShareNotification(to string, data email.ShareNotificationData) error
}

type sharePublisher interface {
	BroadcastShare(documentID, email, accessLevel string)
}

type historyService interface {
	EnsureDocumentRepo(documentID string, initial history.Content, author string) error
	CommitContent(documentID string, content history.Content, author, message string) (history.Commit, error)
	History(documentID string, limit int) ([]history.Commit, error)
	ContentAt(documentID, hash string) (history.Content, error)
	RemoveDocumentRepo(documentID string) error
}

type searchService interface {
	Search(q search.Query) search.Response
	IndexDocument(doc search.DocumentRecord)
	DeleteDocument(id string)
}

type exporter interface {
	ExportPDF(doc export.Document) (*export.Result, error)
}

type Service struct {
	cfg      config.Config
	store    dataStore
	sessions sessionStore
	google   googleVerifier
	mail     notifier
	realtime sharePublisher
	history  historyService
	search   searchService
	exporter exporter
	files    attachments.Storage
}

func New(cfg config.Config, dataStore *store.PostgresStore, historySvc *history.Service, searchSvc *search.Service) *Service {
	s := &Service{
		cfg:    cfg,
		store:  dataStore,
		google: auth.NewGoogleVerifier(cfg.GoogleClientID),
	}
	if historySvc != nil {
		s.history = historySvc
	}
	if searchSvc != nil {
		s.search = searchSvc
	}
	return s
}

func NewWithSessionStore(cfg config.Config, dataStore *store.PostgresStore, sessions *session.RedisStore, historySvc *history.Service, searchSvc *search.Service) *Service {
	s := New(cfg, dataStore, historySvc, searchSvc)
	s.sessions = sessions
	return s
}

func (s *Service) SetNotifier(mail *email.Service) {
	if mail != nil {
		s.mail = mail
	}
}

func (s *Service) SetSharePublisher(gateway *realtime.Gateway) {
	if gateway != nil {
		s.realtime = gateway
	}
}

func (s *Service) SetExporter(exportSvc *export.Service) {
	if exportSvc != nil {
		s.exporter = exportSvc
	}
}

func (s *Service) SetAttachmentStorage(storage attachments.Storage) {
	if storage != nil {
		s.files = storage
	}
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) refreshStore() sessionStore {
	if s.sessions != nil {
		return s.sessions
	}
	return s.store
}

// GoogleLogin verifies a Google ID token, upserts the user record, and
// issues an app session.
func (s *Service) GoogleLogin(ctx context.Context, idToken string) (Session, error) {
	identity, err := s.google.Verify(ctx, idToken)
	if err != nil {
		return Session{}, err
	}

	user, err := s.store.EnsureUserByGoogle(ctx, store.User{
		ID:          util.NewID("usr"),
		GoogleSub:   identity.Sub,
		Email:       strings.ToLower(identity.Email),
		DisplayName: identity.Name,
		AvatarURL:   identity.Picture,
	})
	if err != nil {
		return Session{}, err
	}

	return s.issueSession(ctx, user)
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	tokenHash := auth.HashToken(refreshToken)
	found, err := s.refreshStore().LookupRefreshSession(ctx, tokenHash)
	if err != nil {
		return Session{}, err
	}
	if err := s.refreshStore().RevokeRefreshSession(ctx, tokenHash); err != nil {
		return Session{}, err
	}
	// Redis only stores the user id, re-read the full record.
	user, err := s.store.GetUserByID(ctx, found.ID)
	if err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

func (s *Service) issueSession(ctx context.Context, user store.User) (Session, error) {
	now := time.Now()
	expiresAt := now.Add(s.cfg.AccessTTL)
	jti := util.NewID("jti")

	token, err := auth.IssueToken([]byte(s.cfg.JWTSecret), auth.Claims{
		Sub:   user.ID,
		Name:  user.DisplayName,
		Email: user.Email,
		JTI:   jti,
		Exp:   expiresAt.Unix(),
	})
	if err != nil {
		return Session{}, err
	}

	refresh := util.NewID("rft") + util.NewID("")
	refreshExpires := now.Add(s.cfg.RefreshTTL)
	if err := s.refreshStore().SaveRefreshSession(ctx, auth.HashToken(refresh), user.ID, refreshExpires); err != nil {
		return Session{}, err
	}

	return Session{
		Token:        token,
		RefreshToken: refresh,
		UserID:       user.ID,
		UserName:     user.DisplayName,
		Email:        user.Email,
		AvatarURL:    user.AvatarURL,
		JTI:          jti,
		ExpiresAt:    expiresAt,
	}, nil
}

func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := auth.ParseToken([]byte(s.cfg.JWTSecret), token)
	if err != nil {
		return Session{}, err
	}

	user, err := s.store.GetUserByID(ctx, claims.Sub)
	if err != nil {
		return Session{}, err
	}

	return Session{
		Token:     token,
		UserID:    user.ID,
		UserName:  user.DisplayName,
		Email:     user.Email,
		AvatarURL: user.AvatarURL,
		JTI:       claims.JTI,
		ExpiresAt: time.Unix(claims.Exp, 0),
	}, nil
}

func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken != "" {
		_ = s.refreshStore().RevokeRefreshSession(ctx, auth.HashToken(refreshToken))
	}
	return nil
}

// documentForUser loads a document and its grants and verifies the
// caller can see it.
func (s *Service) documentForUser(ctx context.Context, docID, userID string) (store.Document, []access.Grant, error) {
	doc, err := s.store.GetDocument(ctx, docID)
	if err != nil {
		return store.Document{}, nil, err
	}
	grants, err := s.accessGrants(ctx, doc.ID)
	if err != nil {
		return store.Document{}, nil, err
	}
	if !access.HasAccess(doc.AuthorID, grants, userID) {
		return store.Document{}, nil, domainError(http.StatusForbidden, "FORBIDDEN", "You do not have access to this document", nil)
	}
	return doc, grants, nil
}

func (s *Service) accessGrants(ctx context.Context, documentID int64) ([]access.Grant, error) {
	rows, err := s.store.ListAccessGrants(ctx, documentID)
	if err != nil {
		return nil, err
	}
	grants := make([]access.Grant, 0, len(rows))
	for _, row := range rows {
		level, ok := access.ParseLevel(row.Level)
		if !ok {
			continue
		}
		grants = append(grants, access.Grant{UserID: row.UserID, Level: level})
	}
	return grants, nil
}

func (s *Service) CreateDocument(ctx context.Context, session Session, title, content, templateID string) (map[string]any, error) {
	if templateID != "" {
		tpl, err := s.store.GetTemplate(ctx, templateID)
		if err != nil {
			return nil, err
		}
		if content == "" {
			content = tpl.Content
		}
		if title == "" {
			title = tpl.Name
		}
	}
	if title == "" {
		title = "Untitled Document"
	}

	doc, err := s.store.CreateDocument(ctx, store.Document{
		DocID:    util.NewID("doc"),
		Title:    title,
		Content:  content,
		AuthorID: session.UserID,
	})
	if err != nil {
		return nil, err
	}

	if s.history != nil {
		if err := s.history.EnsureDocumentRepo(doc.DocID, history.Content{Title: doc.Title, Content: doc.Content}, session.UserName); err != nil {
			log.Printf("history: init repo for %s: %v", doc.DocID, err)
		}
	}
	s.indexDocument(doc, []access.Grant{})

	return docPayload(doc, "Author"), nil
}

func (s *Service) GetDocument(ctx context.Context, session Session, docID string) (map[string]any, error) {
	doc, grants, err := s.documentForUser(ctx, docID, session.UserID)
	if err != nil {
		return nil, err
	}
	return docPayload(doc, access.RoleTag(doc.AuthorID, grants, session.UserID)), nil
}

func (s *Service) UpdateDocument(ctx context.Context, session Session, docID, title, content string) (map[string]any, error) {
	doc, grants, err := s.documentForUser(ctx, docID, session.UserID)
	if err != nil {
		return nil, err
	}
	if !access.CanEdit(doc.AuthorID, grants, session.UserID) {
		return nil, domainError(http.StatusForbidden, "FORBIDDEN", "You do not have edit access to this document", nil)
	}

	updated, err := s.store.UpdateDocument(ctx, docID, title, content)
	if err != nil {
		return nil, err
	}

	if s.history != nil {
		if _, err := s.history.CommitContent(updated.DocID, history.Content{Title: updated.Title, Content: updated.Content}, session.UserName, "Update document"); err != nil {
			log.Printf("history: commit for %s: %v", updated.DocID, err)
		}
	}
	s.indexDocument(updated, grants)

	return docPayload(updated, access.RoleTag(updated.AuthorID, grants, session.UserID)), nil
}

func (s *Service) DeleteDocument(ctx context.Context, session Session, docID string) error {
	doc, err := s.store.GetDocument(ctx, docID)
	if err != nil {
		return err
	}
	if !access.CanDelete(doc.AuthorID, session.UserID) {
		return domainError(http.StatusForbidden, "FORBIDDEN", "Only the author can delete a document", nil)
	}

	if err := s.store.DeleteDocumentCascade(ctx, doc.ID); err != nil {
		return err
	}

	if s.search != nil {
		s.search.DeleteDocument(doc.DocID)
	}
	if s.history != nil {
		if err := s.history.RemoveDocumentRepo(doc.DocID); err != nil {
			log.Printf("history: remove repo for %s: %v", doc.DocID, err)
		}
	}
	if s.files != nil {
		if err := s.files.DeletePrefix(ctx, doc.DocID+"/"); err != nil {
			log.Printf("attachments: remove prefix for %s: %v", doc.DocID, err)
		}
	}
	return nil
}

func (s *Service) ShareDocument(ctx context.Context, session Session, docID, recipientEmail, level string) (map[string]any, error) {
	doc, err := s.store.GetDocument(ctx, docID)
	if err != nil {
		return nil, err
	}
	if doc.AuthorID != session.UserID {
		return nil, domainError(http.StatusForbidden, "FORBIDDEN", "Only the author can share a document", nil)
	}

	parsed, ok := access.ParseLevel(level)
	if !ok {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "accessLevel must be editor, reviewer, or reader", nil)
	}

	recipientEmail = strings.ToLower(strings.TrimSpace(recipientEmail))
	if recipientEmail == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "email is required", nil)
	}

	recipient, err := s.store.GetUserByEmail(ctx, recipientEmail)
	if err != nil {
		return nil, err
	}
	if recipient.ID == doc.AuthorID {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Document is already owned by that user", nil)
	}

	if err := s.store.GrantAccess(ctx, doc.ID, recipient.ID, string(parsed)); err != nil {
		return nil, err
	}

	// Notification failures never fail the share itself.
	if s.mail != nil && s.mail.IsConfigured() {
		sharer := session.UserName
		docTitle := doc.Title
		docURL := strings.TrimRight(s.cfg.FrontendURL, "/") + "/document/" + doc.DocID
		go func() {
			if err := s.mail.SendShareNotification(recipient.Email, email.ShareNotificationData{
				RecipientName: recipient.DisplayName,
				SharerName:    sharer,
				DocumentTitle: docTitle,
				AccessLevel:   string(parsed),
				DocumentURL:   docURL,
			}); err != nil {
				log.Printf("email: share notification to %s: %v", recipient.Email, err)
			}
		}()
	}

	if s.realtime != nil {
		s.realtime.BroadcastShare(doc.DocID, recipient.Email, string(parsed))
	}

	grants, err := s.accessGrants(ctx, doc.ID)
	if err != nil {
		return nil, err
	}
	s.indexDocument(doc, grants)

	return map[string]any{
		"documentId":  doc.DocID,
		"userId":      recipient.ID,
		"email":       recipient.Email,
		"accessLevel": string(parsed),
	}, nil
}

func (s *Service) RemoveAccess(ctx context.Context, session Session, docID, targetUserID string) error {
	doc, err := s.store.GetDocument(ctx, docID)
	if err != nil {
		return err
	}
	if doc.AuthorID != session.UserID {
		return domainError(http.StatusForbidden, "FORBIDDEN", "Only the author can manage access", nil)
	}
	if targetUserID == doc.AuthorID {
		return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Cannot remove the author", nil)
	}

	if err := s.store.RevokeAccess(ctx, doc.ID, targetUserID); err != nil {
		return err
	}

	grants, err := s.accessGrants(ctx, doc.ID)
	if err != nil {
		return err
	}
	s.indexDocument(doc, grants)
	return nil
}

// HasAccess reports whether the caller can see the document at all.
func (s *Service) HasAccess(ctx context.Context, session Session, docID string) (bool, error) {
	doc, err := s.store.GetDocument(ctx, docID)
	if err != nil {
		return false, err
	}
	grants, err := s.accessGrants(ctx, doc.ID)
	if err != nil {
		return false, err
	}
	return access.HasAccess(doc.AuthorID, grants, session.UserID), nil
}

// DocumentUsers lists everyone with access, each tagged with their
// display role. A user holding several levels appears once, under the
// most privileged role.
func (s *Service) DocumentUsers(ctx context.Context, session Session, docID string) ([]map[string]any, error) {
	doc, grants, err := s.documentForUser(ctx, docID, session.UserID)
	if err != nil {
		return nil, err
	}

	author, err := s.store.GetUserByID(ctx, doc.AuthorID)
	if err != nil {
		return nil, err
	}

	users, err := s.store.ListDocumentUsers(ctx, doc.ID)
	if err != nil {
		return nil, err
	}

	items := make([]map[string]any, 0, len(users)+1)
	items = append(items, map[string]any{
		"userId": author.ID,
		"name":   author.DisplayName,
		"email":  author.Email,
		"role":   "Author",
	})
	seen := map[string]struct{}{author.ID: {}}
	for _, u := range users {
		if _, ok := seen[u.UserID]; ok {
			continue
		}
		seen[u.UserID] = struct{}{}
		items = append(items, map[string]any{
			"userId": u.UserID,
			"name":   u.DisplayName,
			"email":  u.Email,
			"role":   access.RoleTag(doc.AuthorID, grants, u.UserID),
		})
	}
	return items, nil
}

const dashboardLimit = 10

func (s *Service) RecentDocuments(ctx context.Context, session Session) ([]map[string]any, error) {
	docs, err := s.store.RecentDocuments(ctx, session.UserID, dashboardLimit)
	if err != nil {
		return nil, err
	}
	return docSummaries(docs), nil
}

func (s *Service) SharedDocuments(ctx context.Context, session Session) ([]map[string]any, error) {
	docs, err := s.store.SharedDocuments(ctx, session.UserID, dashboardLimit)
	if err != nil {
		return nil, err
	}
	return docSummaries(docs), nil
}

func (s *Service) SubmitFeedback(ctx context.Context, userID, username, docID string, rating int, suggestion string) (map[string]any, error) {
	if rating < 1 || rating > 5 {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "rating must be between 1 and 5", nil)
	}
	if strings.TrimSpace(docID) == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "documentId is required", nil)
	}

	fb := store.Feedback{
		DocumentID: docID,
		Rating:     rating,
		Suggestion: strings.TrimSpace(suggestion),
		Username:   "Anonymous",
	}
	if userID != "" {
		fb.UserID = &userID
	}
	if strings.TrimSpace(username) != "" {
		fb.Username = username
	}

	saved, err := s.store.InsertFeedback(ctx, fb)
	if err != nil {
		return nil, err
	}
	return feedbackPayload(saved), nil
}

// ListFeedback is restricted to the document's author.
func (s *Service) ListFeedback(ctx context.Context, session Session, docID string) ([]map[string]any, error) {
	doc, err := s.store.GetDocument(ctx, docID)
	if err != nil {
		return nil, err
	}
	if doc.AuthorID != session.UserID {
		return nil, domainError(http.StatusForbidden, "FORBIDDEN", "Only the author can read feedback", nil)
	}

	items, err := s.store.ListFeedback(ctx, docID)
	if err != nil {
		return nil, err
	}
	payload := make([]map[string]any, 0, len(items))
	for _, fb := range items {
		payload = append(payload, feedbackPayload(fb))
	}
	return payload, nil
}

func (s *Service) CreateTemplate(ctx context.Context, session Session, name, description, content string) (map[string]any, error) {
	if strings.TrimSpace(name) == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "name is required", nil)
	}

	tpl := store.Template{
		ID:          util.NewID("tpl"),
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		Content:     content,
		CreatedBy:   session.UserID,
	}
	if err := s.store.InsertTemplate(ctx, tpl); err != nil {
		return nil, err
	}
	return templatePayload(tpl), nil
}

func (s *Service) ListTemplates(ctx context.Context) ([]map[string]any, error) {
	items, err := s.store.ListTemplates(ctx)
	if err != nil {
		return nil, err
	}
	payload := make([]map[string]any, 0, len(items))
	for _, tpl := range items {
		payload = append(payload, templatePayload(tpl))
	}
	return payload, nil
}

func (s *Service) Search(ctx context.Context, session Session, query string, limit, offset int) (search.Response, error) {
	if s.search == nil {
		return search.Response{Results: []search.Result{}, Query: query}, nil
	}
	return s.search.Search(search.Query{
		Text:   query,
		UserID: session.UserID,
		Limit:  limit,
		Offset: offset,
	}), nil
}

func (s *Service) ExportDocument(ctx context.Context, session Session, docID string) (*export.Result, error) {
	if s.exporter == nil {
		return nil, domainError(http.StatusServiceUnavailable, "EXPORT_UNAVAILABLE", "Export is not configured", nil)
	}
	doc, _, err := s.documentForUser(ctx, docID, session.UserID)
	if err != nil {
		return nil, err
	}
	author, err := s.store.GetUserByID(ctx, doc.AuthorID)
	if err != nil {
		return nil, err
	}
	return s.exporter.ExportPDF(export.Document{
		ID:        doc.DocID,
		Title:     doc.Title,
		Content:   doc.Content,
		Author:    author.DisplayName,
		UpdatedAt: doc.UpdatedAt,
	})
}

func (s *Service) DocumentHistory(ctx context.Context, session Session, docID string, limit int) ([]history.Commit, error) {
	if s.history == nil {
		return []history.Commit{}, nil
	}
	if _, _, err := s.documentForUser(ctx, docID, session.UserID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	return s.history.History(docID, limit)
}

func (s *Service) DocumentRevision(ctx context.Context, session Session, docID, hash string) (history.Content, error) {
	if s.history == nil {
		return history.Content{}, domainError(http.StatusServiceUnavailable, "HISTORY_UNAVAILABLE", "History is not configured", nil)
	}
	if _, _, err := s.documentForUser(ctx, docID, session.UserID); err != nil {
		return history.Content{}, err
	}
	return s.history.ContentAt(docID, hash)
}

// UploadAttachment streams a file into object storage under the
// document's key space. Editors and the author may upload.
func (s *Service) UploadAttachment(ctx context.Context, session Session, docID, filename, contentType string, size int64, body io.Reader) (map[string]any, error) {
	if s.files == nil {
		return nil, domainError(http.StatusServiceUnavailable, "ATTACHMENTS_UNAVAILABLE", "Attachment storage is not configured", nil)
	}
	doc, grants, err := s.documentForUser(ctx, docID, session.UserID)
	if err != nil {
		return nil, err
	}
	if !access.CanEdit(doc.AuthorID, grants, session.UserID) {
		return nil, domainError(http.StatusForbidden, "FORBIDDEN", "You do not have edit access to this document", nil)
	}

	filename = path.Base(strings.TrimSpace(filename))
	if filename == "" || filename == "." || filename == "/" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "filename is required", nil)
	}

	key := doc.DocID + "/" + util.NewID("att") + "_" + filename
	info, err := s.files.Put(ctx, key, body, attachments.PutObjectOptions{
		Size:        size,
		ContentType: contentType,
		Metadata:    map[string]string{"uploaded-by": session.UserID},
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"key":         info.Key,
		"size":        info.Size,
		"contentType": contentType,
		"filename":    filename,
	}, nil
}

// AttachmentURL returns a presigned download link for an attachment.
func (s *Service) AttachmentURL(ctx context.Context, session Session, docID, key string) (string, error) {
	if s.files == nil {
		return "", domainError(http.StatusServiceUnavailable, "ATTACHMENTS_UNAVAILABLE", "Attachment storage is not configured", nil)
	}
	doc, _, err := s.documentForUser(ctx, docID, session.UserID)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(key, doc.DocID+"/") {
		return "", domainError(http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}
	return s.files.PresignGet(ctx, key, 15*time.Minute)
}

func (s *Service) DeleteAttachment(ctx context.Context, session Session, docID, key string) error {
	if s.files == nil {
		return domainError(http.StatusServiceUnavailable, "ATTACHMENTS_UNAVAILABLE", "Attachment storage is not configured", nil)
	}
	doc, grants, err := s.documentForUser(ctx, docID, session.UserID)
	if err != nil {
		return err
	}
	if !access.CanEdit(doc.AuthorID, grants, session.UserID) {
		return domainError(http.StatusForbidden, "FORBIDDEN", "You do not have edit access to this document", nil)
	}
	if !strings.HasPrefix(key, doc.DocID+"/") {
		return domainError(http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}
	return s.files.Delete(ctx, key)
}

func (s *Service) indexDocument(doc store.Document, grants []access.Grant) {
	if s.search == nil {
		return
	}
	visible := make([]string, 0, len(grants)+1)
	visible = append(visible, doc.AuthorID)
	seen := map[string]struct{}{doc.AuthorID: {}}
	for _, g := range grants {
		if _, ok := seen[g.UserID]; ok {
			continue
		}
		seen[g.UserID] = struct{}{}
		visible = append(visible, g.UserID)
	}
	s.search.IndexDocument(search.DocumentRecord{
		ID:        doc.DocID,
		Title:     doc.Title,
		Content:   doc.Content,
		AuthorID:  doc.AuthorID,
		VisibleTo: visible,
	})
}

func docPayload(doc store.Document, role string) map[string]any {
	return map[string]any{
		"id":        doc.DocID,
		"title":     doc.Title,
		"content":   doc.Content,
		"authorId":  doc.AuthorID,
		"role":      role,
		"createdAt": doc.CreatedAt,
		"updatedAt": doc.UpdatedAt,
	}
}

func docSummaries(docs []store.Document) []map[string]any {
	items := make([]map[string]any, 0, len(docs))
	for _, doc := range docs {
		items = append(items, map[string]any{
			"id":        doc.DocID,
			"title":     doc.Title,
			"authorId":  doc.AuthorID,
			"updatedAt": doc.UpdatedAt,
		})
	}
	return items
}

func feedbackPayload(fb store.Feedback) map[string]any {
	return map[string]any{
		"id":         fb.ID,
		"documentId": fb.DocumentID,
		"rating":     fb.Rating,
		"suggestion": fb.Suggestion,
		"username":   fb.Username,
		"createdAt":  fb.CreatedAt,
	}
}

func templatePayload(tpl store.Template) map[string]any {
	return map[string]any{
		"id":          tpl.ID,
		"name":        tpl.Name,
		"description": tpl.Description,
		"content":     tpl.Content,
		"createdAt":   tpl.CreatedAt,
	}
}

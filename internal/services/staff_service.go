package services

import (
	"context"
	"errors"
	"strings"

	"charter/internal/domain"
	"charter/internal/domain/models"
	"charter/internal/storage"
	"charter/internal/utils"

	"github.com/google/uuid"
)

type DriverStore interface {
	Insert(ctx context.Context, d *models.Driver) error
	GetByID(ctx context.Context, id string) (models.Driver, error)
	List(ctx context.Context, q string, activeOnly bool) ([]models.Driver, error)
	Update(ctx context.Context, d *models.Driver) error
	SetAvatar(ctx context.Context, id, path string) error
	Delete(ctx context.Context, id string) error
	InsertDocument(ctx context.Context, doc *models.DriverDocument) error
	ListDocuments(ctx context.Context, driverID string) ([]models.DriverDocument, error)
	GetDocument(ctx context.Context, driverID, docID string) (models.DriverDocument, error)
	DeleteDocument(ctx context.Context, driverID, docID string) error
}

type EmployeeStore interface {
	Insert(ctx context.Context, e *models.Employee) error
	GetByID(ctx context.Context, id string) (models.Employee, error)
	List(ctx context.Context) ([]models.Employee, error)
	Update(ctx context.Context, e *models.Employee) error
	SetAvatar(ctx context.Context, id, path string) error
}

type VehicleStore interface {
	Insert(ctx context.Context, v *models.Vehicle) error
	GetByID(ctx context.Context, id string) (models.Vehicle, error)
	List(ctx context.Context, q string, limit, offset int) ([]models.Vehicle, error)
	Update(ctx context.Context, v *models.Vehicle) error
}

// Upload is a file received from a multipart form.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

var documentTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
}

func checkUpload(u Upload, imagesOnly bool) error {
	if len(u.Data) == 0 {
		return domain.ValidationError{Field: "file", Msg: "is empty"}
	}
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(u.ContentType, ";", 2)[0]))
	if imagesOnly && !strings.HasPrefix(ct, "image/") {
		return domain.ValidationError{Field: "file", Msg: "must be an image"}
	}
	if !imagesOnly && !documentTypes[ct] {
		return domain.ValidationError{Field: "file", Msg: "must be a PDF or an image"}
	}
	return nil
}

func storageError(err error) error {
	if errors.Is(err, storage.ErrDisabled) {
		return domain.ConflictError{Resource: "storage", Msg: "file uploads are not configured", Err: err}
	}
	return domain.InternalError{Msg: "could not store file", Err: err}
}

// signedURL resolves a stored key for display; failures leave it empty.
func signedURL(ctx context.Context, store storage.Store, reqID, key string) string {
	if key == "" || store == nil {
		return ""
	}
	u, err := store.SignedURL(ctx, key)
	if err != nil {
		utils.LogError(reqID, "storage", "sign_url", err)
		return ""
	}
	return u
}

type DriverInput struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	LicenseClasses string `json:"license_classes"`
	EmploymentType string `json:"employment_type"`
	HiredOn        string `json:"hired_on"`
	Active         *bool  `json:"active"`
	Notes          string `json:"notes"`
}

type DriverService struct {
	Drivers   DriverStore
	Storage   storage.Store
	RequestID string
}

func (s DriverService) withURL(ctx context.Context, d models.Driver) models.Driver {
	d.AvatarURL = signedURL(ctx, s.Storage, s.RequestID, d.AvatarPath)
	return d
}

func (s DriverService) Create(ctx context.Context, in DriverInput) (models.Driver, error) {
	d := models.Driver{ID: uuid.NewString(), Active: true}
	if err := applyDriverInput(&d, in); err != nil {
		return models.Driver{}, err
	}
	if err := s.Drivers.Insert(ctx, &d); err != nil {
		return models.Driver{}, err
	}
	utils.LogEvent(s.RequestID, "drivers", "create", "id="+d.ID)
	return d, nil
}

func (s DriverService) Get(ctx context.Context, id string) (models.Driver, error) {
	d, err := s.Drivers.GetByID(ctx, id)
	if err != nil {
		return models.Driver{}, err
	}
	return s.withURL(ctx, d), nil
}

func (s DriverService) List(ctx context.Context, q string, activeOnly bool) ([]models.Driver, error) {
	list, err := s.Drivers.List(ctx, strings.TrimSpace(q), activeOnly)
	if err != nil {
		return nil, err
	}
	for i := range list {
		list[i] = s.withURL(ctx, list[i])
	}
	return list, nil
}

func (s DriverService) Update(ctx context.Context, id string, in DriverInput) (models.Driver, error) {
	d, err := s.Drivers.GetByID(ctx, id)
	if err != nil {
		return models.Driver{}, err
	}
	if err := applyDriverInput(&d, in); err != nil {
		return models.Driver{}, err
	}
	if err := s.Drivers.Update(ctx, &d); err != nil {
		return models.Driver{}, err
	}
	utils.LogEvent(s.RequestID, "drivers", "update", "id="+id)
	return s.withURL(ctx, d), nil
}

// Delete removes the driver row first, then its stored files.
func (s DriverService) Delete(ctx context.Context, id string) error {
	d, err := s.Drivers.GetByID(ctx, id)
	if err != nil {
		return err
	}
	docs, err := s.Drivers.ListDocuments(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Drivers.Delete(ctx, id); err != nil {
		return err
	}
	keys := []string{d.AvatarPath}
	for _, doc := range docs {
		keys = append(keys, doc.StoragePath)
	}
	for _, k := range keys {
		if k == "" {
			continue
		}
		if err := s.Storage.Delete(ctx, k); err != nil {
			utils.LogError(s.RequestID, "drivers", "delete_file", err)
		}
	}
	utils.LogEvent(s.RequestID, "drivers", "delete", "id="+id)
	return nil
}

func (s DriverService) UploadAvatar(ctx context.Context, id string, u Upload) (models.Driver, error) {
	if err := checkUpload(u, true); err != nil {
		return models.Driver{}, err
	}
	d, err := s.Drivers.GetByID(ctx, id)
	if err != nil {
		return models.Driver{}, err
	}
	key := storage.ObjectKey("avatars/drivers", id, u.Filename)
	if err := s.Storage.Upload(ctx, key, u.ContentType, u.Data); err != nil {
		return models.Driver{}, storageError(err)
	}
	if err := s.Drivers.SetAvatar(ctx, id, key); err != nil {
		if derr := s.Storage.Delete(ctx, key); derr != nil {
			utils.LogError(s.RequestID, "drivers", "cleanup_avatar", derr)
		}
		return models.Driver{}, err
	}
	if d.AvatarPath != "" {
		if err := s.Storage.Delete(ctx, d.AvatarPath); err != nil {
			utils.LogError(s.RequestID, "drivers", "delete_old_avatar", err)
		}
	}
	d.AvatarPath = key
	return s.withURL(ctx, d), nil
}

func (s DriverService) AddDocument(ctx context.Context, driverID, name string, u Upload) (models.DriverDocument, error) {
	if err := checkUpload(u, false); err != nil {
		return models.DriverDocument{}, err
	}
	if _, err := s.Drivers.GetByID(ctx, driverID); err != nil {
		return models.DriverDocument{}, err
	}
	doc := models.DriverDocument{
		ID:          uuid.NewString(),
		DriverID:    driverID,
		Name:        utils.DefaultIfEmpty(utils.NormalizeSpace(name), u.Filename),
		StoragePath: storage.ObjectKey("documents/drivers", driverID, u.Filename),
	}
	if err := s.Storage.Upload(ctx, doc.StoragePath, u.ContentType, u.Data); err != nil {
		return models.DriverDocument{}, storageError(err)
	}
	if err := s.Drivers.InsertDocument(ctx, &doc); err != nil {
		if derr := s.Storage.Delete(ctx, doc.StoragePath); derr != nil {
			utils.LogError(s.RequestID, "drivers", "cleanup_document", derr)
		}
		return models.DriverDocument{}, err
	}
	utils.LogEvent(s.RequestID, "drivers", "add_document", "driver_id="+driverID+" doc_id="+doc.ID)
	doc.URL = signedURL(ctx, s.Storage, s.RequestID, doc.StoragePath)
	return doc, nil
}

func (s DriverService) ListDocuments(ctx context.Context, driverID string) ([]models.DriverDocument, error) {
	if _, err := s.Drivers.GetByID(ctx, driverID); err != nil {
		return nil, err
	}
	docs, err := s.Drivers.ListDocuments(ctx, driverID)
	if err != nil {
		return nil, err
	}
	for i := range docs {
		docs[i].URL = signedURL(ctx, s.Storage, s.RequestID, docs[i].StoragePath)
	}
	return docs, nil
}

func (s DriverService) DeleteDocument(ctx context.Context, driverID, docID string) error {
	doc, err := s.Drivers.GetDocument(ctx, driverID, docID)
	if err != nil {
		return err
	}
	if err := s.Drivers.DeleteDocument(ctx, driverID, docID); err != nil {
		return err
	}
	if err := s.Storage.Delete(ctx, doc.StoragePath); err != nil {
		utils.LogError(s.RequestID, "drivers", "delete_document_file", err)
	}
	return nil
}

func applyDriverInput(d *models.Driver, in DriverInput) error {
	name, err := requireText("name", in.Name)
	if err != nil {
		return err
	}
	email, err := optionalEmail("email", in.Email)
	if err != nil {
		return err
	}
	hired, err := optionalDate("hired_on", in.HiredOn)
	if err != nil {
		return err
	}
	d.Name = name
	d.Email = email
	d.Phone = utils.TrimOrEmpty(in.Phone)
	d.LicenseClasses = strings.Join(utils.SplitList(in.LicenseClasses), ",")
	d.EmploymentType = utils.NormalizeSpace(in.EmploymentType)
	d.HiredOn = hired
	if in.Active != nil {
		d.Active = *in.Active
	}
	d.Notes = utils.TrimOrEmpty(in.Notes)
	return nil
}

type EmployeeInput struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Title      string `json:"title"`
	EmployedOn string `json:"employed_on"`
	Active     *bool  `json:"active"`
}

type EmployeeService struct {
	Employees EmployeeStore
	Storage   storage.Store
	RequestID string
}

func (s EmployeeService) withURL(ctx context.Context, e models.Employee) models.Employee {
	e.AvatarURL = signedURL(ctx, s.Storage, s.RequestID, e.AvatarPath)
	return e
}

func (s EmployeeService) Create(ctx context.Context, in EmployeeInput) (models.Employee, error) {
	e := models.Employee{ID: uuid.NewString(), Active: true}
	if err := applyEmployeeInput(&e, in); err != nil {
		return models.Employee{}, err
	}
	if err := s.Employees.Insert(ctx, &e); err != nil {
		return models.Employee{}, err
	}
	utils.LogEvent(s.RequestID, "employees", "create", "id="+e.ID)
	return e, nil
}

func (s EmployeeService) Get(ctx context.Context, id string) (models.Employee, error) {
	e, err := s.Employees.GetByID(ctx, id)
	if err != nil {
		return models.Employee{}, err
	}
	return s.withURL(ctx, e), nil
}

func (s EmployeeService) List(ctx context.Context) ([]models.Employee, error) {
	list, err := s.Employees.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range list {
		list[i] = s.withURL(ctx, list[i])
	}
	return list, nil
}

func (s EmployeeService) Update(ctx context.Context, id string, in EmployeeInput) (models.Employee, error) {
	e, err := s.Employees.GetByID(ctx, id)
	if err != nil {
		return models.Employee{}, err
	}
	if err := applyEmployeeInput(&e, in); err != nil {
		return models.Employee{}, err
	}
	if err := s.Employees.Update(ctx, &e); err != nil {
		return models.Employee{}, err
	}
	return s.withURL(ctx, e), nil
}

func (s EmployeeService) UploadAvatar(ctx context.Context, id string, u Upload) (models.Employee, error) {
	if err := checkUpload(u, true); err != nil {
		return models.Employee{}, err
	}
	e, err := s.Employees.GetByID(ctx, id)
	if err != nil {
		return models.Employee{}, err
	}
	key := storage.ObjectKey("avatars/employees", id, u.Filename)
	if err := s.Storage.Upload(ctx, key, u.ContentType, u.Data); err != nil {
		return models.Employee{}, storageError(err)
	}
	if err := s.Employees.SetAvatar(ctx, id, key); err != nil {
		if derr := s.Storage.Delete(ctx, key); derr != nil {
			utils.LogError(s.RequestID, "employees", "cleanup_avatar", derr)
		}
		return models.Employee{}, err
	}
	if e.AvatarPath != "" {
		if err := s.Storage.Delete(ctx, e.AvatarPath); err != nil {
			utils.LogError(s.RequestID, "employees", "delete_old_avatar", err)
		}
	}
	e.AvatarPath = key
	return s.withURL(ctx, e), nil
}

func applyEmployeeInput(e *models.Employee, in EmployeeInput) error {
	name, err := requireText("name", in.Name)
	if err != nil {
		return err
	}
	email, err := optionalEmail("email", in.Email)
	if err != nil {
		return err
	}
	since, err := optionalDate("employed_on", in.EmployedOn)
	if err != nil {
		return err
	}
	e.Name = name
	e.Email = email
	e.Phone = utils.TrimOrEmpty(in.Phone)
	e.Title = utils.NormalizeSpace(in.Title)
	e.EmployedOn = since
	if in.Active != nil {
		e.Active = *in.Active
	}
	return nil
}

type VehicleInput struct {
	Registration string `json:"registration"`
	Name         string `json:"name"`
	Seats        int    `json:"seats"`
	ModelYear    int    `json:"model_year"`
	LastService  string `json:"last_service"`
	Notes        string `json:"notes"`
}

// VehicleService has no delete; vehicles stay referenced by old bookings.
type VehicleService struct {
	Vehicles  VehicleStore
	RequestID string
}

func (s VehicleService) Create(ctx context.Context, in VehicleInput) (models.Vehicle, error) {
	v := models.Vehicle{ID: uuid.NewString()}
	if err := applyVehicleInput(&v, in); err != nil {
		return models.Vehicle{}, err
	}
	if err := s.Vehicles.Insert(ctx, &v); err != nil {
		return models.Vehicle{}, err
	}
	utils.LogEvent(s.RequestID, "vehicles", "create", "registration="+v.Registration)
	return v, nil
}

func (s VehicleService) Get(ctx context.Context, id string) (models.Vehicle, error) {
	return s.Vehicles.GetByID(ctx, id)
}

func (s VehicleService) List(ctx context.Context, q string, page domain.Pagination) ([]models.Vehicle, error) {
	page = page.Normalize(50, 200)
	return s.Vehicles.List(ctx, strings.TrimSpace(q), page.PageSize, page.Offset())
}

func (s VehicleService) Update(ctx context.Context, id string, in VehicleInput) (models.Vehicle, error) {
	v, err := s.Vehicles.GetByID(ctx, id)
	if err != nil {
		return models.Vehicle{}, err
	}
	if err := applyVehicleInput(&v, in); err != nil {
		return models.Vehicle{}, err
	}
	if err := s.Vehicles.Update(ctx, &v); err != nil {
		return models.Vehicle{}, err
	}
	return v, nil
}

func applyVehicleInput(v *models.Vehicle, in VehicleInput) error {
	reg := strings.ToUpper(strings.Join(strings.Fields(in.Registration), ""))
	if reg == "" {
		return domain.ValidationError{Field: "registration", Msg: "is required"}
	}
	if in.Seats <= 0 {
		return domain.ValidationError{Field: "seats", Msg: "must be greater than 0"}
	}
	if in.ModelYear < 0 {
		return domain.ValidationError{Field: "model_year", Msg: "must not be negative"}
	}
	service, err := optionalDate("last_service", in.LastService)
	if err != nil {
		return err
	}
	v.Registration = reg
	v.Name = utils.NormalizeSpace(in.Name)
	v.Seats = in.Seats
	v.ModelYear = in.ModelYear
	v.LastService = service
	v.Notes = utils.TrimOrEmpty(in.Notes)
	return nil
}

package mockapi

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"egovportal/internal/domain"
	apperror "egovportal/internal/errors"
)

type userRecord struct {
	domain.Identity
	PasswordHash string
	CreatedAt    time.Time
}

// memStore guarda todos os dados do backend de desenvolvimento em memória.
type memStore struct {
	mu         sync.RWMutex
	bcryptCost int
	nextID     int64

	users         map[int64]*userRecord
	departments   map[int64]*domain.Department
	services      map[int64]*domain.Service
	requests      map[int64]*domain.ServiceRequest
	notifications map[int64]*domain.Notification
	payments      map[int64]*domain.Payment
}

func newMemStore(bcryptCost int) *memStore {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &memStore{
		bcryptCost:    bcryptCost,
		users:         map[int64]*userRecord{},
		departments:   map[int64]*domain.Department{},
		services:      map[int64]*domain.Service{},
		requests:      map[int64]*domain.ServiceRequest{},
		notifications: map[int64]*domain.Notification{},
		payments:      map[int64]*domain.Payment{},
	}
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

// --- Usuários ---

func (s *memStore) createUser(in domain.UserInput) (domain.Identity, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || in.Password == "" {
		return domain.Identity{}, apperror.NewValidationError("Email and password are required")
	}
	role := in.Role
	if role == "" {
		role = domain.RoleCitizen
	}
	if !role.Valid() {
		return domain.Identity{}, apperror.NewValidationError(fmt.Sprintf("Invalid role %q", role))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return domain.Identity{}, apperror.NewInternalError("Falha ao gerar hash da senha.", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return domain.Identity{}, apperror.NewConflictError("Email already registered")
		}
	}
	rec := &userRecord{
		Identity: domain.Identity{
			ID:      s.id(),
			Email:   email,
			Name:    in.Name,
			Role:    role,
			Phone:   in.Phone,
			Address: in.Address,
		},
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}
	s.users[rec.ID] = rec
	return rec.Identity, nil
}

func (s *memStore) authenticate(email, password string) (domain.Identity, error) {
	if email == "" || password == "" {
		return domain.Identity{}, apperror.NewUnauthorizedError("Email and password are required")
	}
	email = strings.ToLower(strings.TrimSpace(email))

	s.mu.RLock()
	var found *userRecord
	for _, u := range s.users {
		if u.Email == email {
			found = u
			break
		}
	}
	s.mu.RUnlock()

	// Usuário inexistente e senha errada recebem a mesma resposta.
	if found == nil {
		return domain.Identity{}, apperror.NewUnauthorizedError("Invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(found.PasswordHash), []byte(password)); err != nil {
		return domain.Identity{}, apperror.NewUnauthorizedError("Invalid credentials")
	}
	return found.Identity, nil
}

func (s *memStore) user(id int64) (domain.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return domain.Identity{}, apperror.NewNotFoundError("User not found")
	}
	return u.Identity, nil
}

func (s *memStore) listUsers() []domain.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Identity, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u.Identity)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *memStore) updateUser(id int64, in domain.UserInput) (domain.Identity, error) {
	var hash []byte
	if in.Password != "" {
		var err error
		hash, err = bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
		if err != nil {
			return domain.Identity{}, apperror.NewInternalError("Falha ao gerar hash da senha.", err)
		}
	}
	if in.Role != "" && !in.Role.Valid() {
		return domain.Identity{}, apperror.NewValidationError(fmt.Sprintf("Invalid role %q", in.Role))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return domain.Identity{}, apperror.NewNotFoundError("User not found")
	}
	if in.Name != "" {
		u.Name = in.Name
	}
	if in.Email != "" {
		u.Email = strings.ToLower(strings.TrimSpace(in.Email))
	}
	if in.Phone != "" {
		u.Phone = in.Phone
	}
	if in.Address != "" {
		u.Address = in.Address
	}
	if in.Role != "" {
		u.Role = in.Role
	}
	if hash != nil {
		u.PasswordHash = string(hash)
	}
	return u.Identity, nil
}

func (s *memStore) deleteUser(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return apperror.NewNotFoundError("User not found")
	}
	delete(s.users, id)
	return nil
}

// --- Departamentos ---

func (s *memStore) createDepartment(in domain.DepartmentInput) (domain.Department, error) {
	if strings.TrimSpace(in.Name) == "" {
		return domain.Department{}, apperror.NewValidationError("Department name is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	d := &domain.Department{ID: s.id(), Name: in.Name, Description: in.Description, CreatedAt: time.Now()}
	s.departments[d.ID] = d
	return *d, nil
}

func (s *memStore) department(id int64) (domain.Department, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.departments[id]
	if !ok {
		return domain.Department{}, apperror.NewNotFoundError("Department not found")
	}
	return *d, nil
}

func (s *memStore) listDepartments() []domain.Department {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Department, 0, len(s.departments))
	for _, d := range s.departments {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *memStore) updateDepartment(id int64, in domain.DepartmentInput) (domain.Department, error) {
	if strings.TrimSpace(in.Name) == "" {
		return domain.Department{}, apperror.NewValidationError("Department name is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.departments[id]
	if !ok {
		return domain.Department{}, apperror.NewNotFoundError("Department not found")
	}
	d.Name = in.Name
	d.Description = in.Description
	for _, svc := range s.services {
		if svc.DepartmentID == id {
			svc.DepartmentName = in.Name
		}
	}
	return *d, nil
}

func (s *memStore) deleteDepartment(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.departments[id]; !ok {
		return apperror.NewNotFoundError("Department not found")
	}
	for _, svc := range s.services {
		if svc.DepartmentID == id {
			return apperror.NewConflictError("Department still has services")
		}
	}
	delete(s.departments, id)
	return nil
}

// --- Serviços ---

func (s *memStore) createService(in domain.ServiceInput) (domain.Service, error) {
	if strings.TrimSpace(in.Name) == "" {
		return domain.Service{}, apperror.NewValidationError("Service name is required")
	}
	if in.Fee < 0 {
		return domain.Service{}, apperror.NewValidationError("Fee cannot be negative")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	dept, ok := s.departments[in.DepartmentID]
	if !ok {
		return domain.Service{}, apperror.NewValidationError("Department does not exist")
	}
	svc := &domain.Service{
		ID:             s.id(),
		DepartmentID:   in.DepartmentID,
		DepartmentName: dept.Name,
		Name:           in.Name,
		Description:    in.Description,
		Fee:            in.Fee,
	}
	s.services[svc.ID] = svc
	return *svc, nil
}

func (s *memStore) listServices(departmentID int64) []domain.Service {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Service, 0, len(s.services))
	for _, svc := range s.services {
		if departmentID != 0 && svc.DepartmentID != departmentID {
			continue
		}
		out = append(out, *svc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *memStore) updateService(id int64, in domain.ServiceInput) (domain.Service, error) {
	if strings.TrimSpace(in.Name) == "" {
		return domain.Service{}, apperror.NewValidationError("Service name is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	svc, ok := s.services[id]
	if !ok {
		return domain.Service{}, apperror.NewNotFoundError("Service not found")
	}
	if in.DepartmentID != 0 {
		dept, ok := s.departments[in.DepartmentID]
		if !ok {
			return domain.Service{}, apperror.NewValidationError("Department does not exist")
		}
		svc.DepartmentID = dept.ID
		svc.DepartmentName = dept.Name
	}
	svc.Name = in.Name
	svc.Description = in.Description
	svc.Fee = in.Fee
	return *svc, nil
}

func (s *memStore) deleteService(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.services[id]; !ok {
		return apperror.NewNotFoundError("Service not found")
	}
	delete(s.services, id)
	return nil
}

// --- Solicitações ---

func (s *memStore) createRequest(citizen domain.Identity, serviceID int64, description string, docs []domain.Document) (domain.ServiceRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	svc, ok := s.services[serviceID]
	if !ok {
		return domain.ServiceRequest{}, apperror.NewValidationError("Service does not exist")
	}
	now := time.Now()
	req := &domain.ServiceRequest{
		ID:           s.id(),
		CitizenID:    citizen.ID,
		CitizenName:  citizen.Name,
		CitizenEmail: citizen.Email,
		ServiceID:    svc.ID,
		ServiceName:  svc.Name,
		Description:  description,
		Status:       domain.StatusPending,
		Documents:    docs,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.requests[req.ID] = req
	s.notifyLocked(citizen.ID, "info", "Request Submitted",
		fmt.Sprintf("Your %s request (#%d) has been submitted.", svc.Name, req.ID))
	return *req, nil
}

func (s *memStore) request(id int64) (domain.ServiceRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.requests[id]
	if !ok {
		return domain.ServiceRequest{}, apperror.NewNotFoundError("Request not found")
	}
	return *r, nil
}

// listRequests devolve as solicitações do cidadão (citizenID != 0) ou todas,
// das mais recentes para as mais antigas.
func (s *memStore) listRequests(citizenID int64) []domain.ServiceRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.ServiceRequest, 0, len(s.requests))
	for _, r := range s.requests {
		if citizenID != 0 && r.CitizenID != citizenID {
			continue
		}
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (s *memStore) updateStatus(id int64, upd domain.StatusUpdate) (domain.ServiceRequest, error) {
	if !upd.Status.Valid() {
		return domain.ServiceRequest{}, apperror.NewValidationError(fmt.Sprintf("Invalid status %q", upd.Status))
	}
	if upd.Status == domain.StatusRejected && strings.TrimSpace(upd.OfficerNotes) == "" {
		return domain.ServiceRequest{}, apperror.NewValidationError("Rejection reason is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[id]
	if !ok {
		return domain.ServiceRequest{}, apperror.NewNotFoundError("Request not found")
	}
	r.Status = upd.Status
	r.OfficerNotes = upd.OfficerNotes
	r.UpdatedAt = time.Now()

	kind, title := "info", "Request Update"
	switch upd.Status {
	case domain.StatusApproved:
		kind, title = "success", "Request Approved"
	case domain.StatusRejected:
		kind, title = "warning", "Request Rejected"
	}
	s.notifyLocked(r.CitizenID, kind, title,
		fmt.Sprintf("Your %s request (#%d) is now %s.", r.ServiceName, r.ID, upd.Status))
	return *r, nil
}

func (s *memStore) deleteRequest(id int64, owner int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[id]
	if !ok {
		return apperror.NewNotFoundError("Request not found")
	}
	if owner != 0 {
		if r.CitizenID != owner {
			return apperror.NewNotFoundError("Request not found")
		}
		if r.Status != domain.StatusPending {
			return apperror.NewConflictError("Only pending requests can be withdrawn")
		}
	}
	delete(s.requests, id)
	return nil
}

// --- Notificações ---

func (s *memStore) notifyLocked(userID int64, kind, title, message string) {
	n := &domain.Notification{
		ID:        s.id(),
		UserID:    userID,
		Type:      kind,
		Title:     title,
		Message:   message,
		CreatedAt: time.Now(),
	}
	s.notifications[n.ID] = n
}

func (s *memStore) listNotifications(userID int64) []domain.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.Notification{}
	for _, n := range s.notifications {
		if userID != 0 && n.UserID != userID {
			continue
		}
		out = append(out, *n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (s *memStore) markRead(id, userID int64) (domain.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[id]
	if !ok || (userID != 0 && n.UserID != userID) {
		return domain.Notification{}, apperror.NewNotFoundError("Notification not found")
	}
	n.Read = true
	return *n, nil
}

// --- Pagamentos ---

func (s *memStore) simulatePayment(payer domain.Identity, in domain.PaymentInput) (domain.Payment, error) {
	if in.Amount <= 0 {
		return domain.Payment{}, apperror.NewValidationError("Amount must be positive")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[in.RequestID]
	if !ok || r.CitizenID != payer.ID {
		return domain.Payment{}, apperror.NewValidationError("Request does not exist")
	}
	method := in.Method
	if method == "" {
		method = "card"
	}
	p := &domain.Payment{
		ID:            s.id(),
		RequestID:     r.ID,
		UserID:        payer.ID,
		Amount:        in.Amount,
		Method:        method,
		Status:        "completed",
		TransactionID: "txn_" + uuid.NewString(),
		CreatedAt:     time.Now(),
	}
	s.payments[p.ID] = p
	s.notifyLocked(payer.ID, "success", "Payment Received",
		fmt.Sprintf("Payment of %.2f for request #%d was received.", p.Amount, r.ID))
	return *p, nil
}

func (s *memStore) listPayments(userID int64) []domain.Payment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.Payment{}
	for _, p := range s.payments {
		if userID != 0 && p.UserID != userID {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

// --- Relatórios ---

func (s *memStore) dashboard() domain.DashboardReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	reqs := make([]domain.ServiceRequest, 0, len(s.requests))
	for _, r := range s.requests {
		reqs = append(reqs, *r)
	}
	var revenue float64
	for _, p := range s.payments {
		revenue += p.Amount
	}
	return domain.DashboardReport{
		TotalUsers:       len(s.users),
		TotalDepartments: len(s.departments),
		TotalServices:    len(s.services),
		Requests:         domain.CountRequests(reqs),
		Revenue:          revenue,
	}
}

func (s *memStore) stats() domain.StatsReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byStatus := map[domain.RequestStatus]int{}
	byService := map[int64]*domain.ServiceStat{}
	for _, r := range s.requests {
		byStatus[r.Status]++
		st, ok := byService[r.ServiceID]
		if !ok {
			st = &domain.ServiceStat{ServiceID: r.ServiceID, ServiceName: r.ServiceName}
			byService[r.ServiceID] = st
		}
		st.Count++
	}
	out := domain.StatsReport{ByStatus: byStatus, ByService: []domain.ServiceStat{}}
	for _, st := range byService {
		out.ByService = append(out.ByService, *st)
	}
	sort.Slice(out.ByService, func(i, j int) bool { return out.ByService[i].ServiceID < out.ByService[j].ServiceID })
	return out
}

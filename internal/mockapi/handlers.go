package mockapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"egovportal/internal/domain"
	apperror "egovportal/internal/errors"
)

func decodeBody(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperror.NewValidationError("Invalid JSON payload")
	}
	return nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.NewValidationError("Invalid id")
	}
	return id, nil
}

func claimsOf(r *http.Request) UserClaims {
	c, _ := GetUserClaimsFromContext(r.Context())
	return c
}

// --- Autenticação ---

func (s *Server) issue(w http.ResponseWriter, status int, message string, user domain.Identity) {
	tok, err := s.tokens.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		s.writeError(w, apperror.NewInternalError("Falha ao gerar token de autenticação.", err))
		return
	}
	s.registry.add(tok)

	var payload domain.AuthPayload
	payload.Message = message
	payload.Data.Token = tok
	payload.Data.User = user
	s.writeJSON(w, status, payload)
}

// register lida com POST /api/auth/register. O cadastro público sempre cria cidadãos.
func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var in domain.UserInput
	if err := decodeBody(r, &in); err != nil {
		s.writeError(w, err)
		return
	}
	in.Role = domain.RoleCitizen

	user, err := s.store.createUser(in)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.logger.Info("Cidadão registrado.", map[string]interface{}{"user_id": user.ID})
	s.issue(w, http.StatusCreated, "Registration successful", user)
}

// login lida com POST /api/auth/login.
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var creds domain.Credentials
	if err := decodeBody(r, &creds); err != nil {
		s.writeError(w, err)
		return
	}
	user, err := s.store.authenticate(creds.Email, creds.Password)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.issue(w, http.StatusOK, "Login successful", user)
}

func (s *Server) getProfile(w http.ResponseWriter, r *http.Request) {
	user, err := s.store.user(claimsOf(r).UserID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"user": user})
}

func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request) {
	var in domain.ProfileUpdate
	if err := decodeBody(r, &in); err != nil {
		s.writeError(w, err)
		return
	}
	user, err := s.store.updateUser(claimsOf(r).UserID, domain.UserInput{Name: in.Name, Phone: in.Phone, Address: in.Address})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"message": "Profile updated", "user": user})
}

// --- Departamentos ---

func (s *Server) listDepartments(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"departments": s.store.listDepartments()})
}

func (s *Server) getDepartment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	d, err := s.store.department(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"department": d})
}

func (s *Server) createDepartment(w http.ResponseWriter, r *http.Request) {
	var in domain.DepartmentInput
	if err := decodeBody(r, &in); err != nil {
		s.writeError(w, err)
		return
	}
	d, err := s.store.createDepartment(in)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]interface{}{"message": "Department created", "department": d})
}

func (s *Server) updateDepartment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var in domain.DepartmentInput
	if err := decodeBody(r, &in); err != nil {
		s.writeError(w, err)
		return
	}
	d, err := s.store.updateDepartment(id, in)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"message": "Department updated", "department": d})
}

func (s *Server) deleteDepartment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.store.deleteDepartment(id); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"message": "Department deleted"})
}

// --- Serviços ---

// listServices lida com GET /api/services e GET /api/services?department={id}.
func (s *Server) listServices(w http.ResponseWriter, r *http.Request) {
	var deptID int64
	if raw := r.URL.Query().Get("department"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			s.writeError(w, apperror.NewValidationError("Invalid department filter"))
			return
		}
		deptID = id
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"services": s.store.listServices(deptID)})
}

func (s *Server) createService(w http.ResponseWriter, r *http.Request) {
	var in domain.ServiceInput
	if err := decodeBody(r, &in); err != nil {
		s.writeError(w, err)
		return
	}
	svc, err := s.store.createService(in)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]interface{}{"message": "Service created", "service": svc})
}

func (s *Server) updateService(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var in domain.ServiceInput
	if err := decodeBody(r, &in); err != nil {
		s.writeError(w, err)
		return
	}
	svc, err := s.store.updateService(id, in)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"message": "Service updated", "service": svc})
}

func (s *Server) deleteService(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.store.deleteService(id); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"message": "Service deleted"})
}

// --- Solicitações ---

// citizenScope devolve o ID do cidadão para filtrar dados próprios; 0 para equipe.
func citizenScope(c UserClaims) int64 {
	if c.Role == domain.RoleCitizen {
		return c.UserID
	}
	return 0
}

func (s *Server) listRequests(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"requests": s.store.listRequests(citizenScope(claimsOf(r)))})
}

func (s *Server) getRequest(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	req, err := s.store.request(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if owner := citizenScope(claimsOf(r)); owner != 0 && req.CitizenID != owner {
		s.writeError(w, apperror.NewNotFoundError("Request not found"))
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"request": req})
}

// createRequest aceita multipart/form-data (service_id, description, documents)
// ou JSON {service_id, description}.
func (s *Server) createRequest(w http.ResponseWriter, r *http.Request) {
	claims := claimsOf(r)
	citizen, err := s.store.user(claims.UserID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var (
		serviceID   int64
		description string
		docs        []domain.Document
	)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			s.writeError(w, apperror.NewValidationError("Invalid form data"))
			return
		}
		serviceID, _ = strconv.ParseInt(r.FormValue("service_id"), 10, 64)
		description = r.FormValue("description")
		if r.MultipartForm != nil {
			for _, fh := range r.MultipartForm.File["documents"] {
				docs = append(docs, domain.Document{Name: fh.Filename, Size: fh.Size})
			}
		}
	} else {
		var in struct {
			ServiceID   int64  `json:"service_id"`
			Description string `json:"description"`
		}
		if err := decodeBody(r, &in); err != nil {
			s.writeError(w, err)
			return
		}
		serviceID, description = in.ServiceID, in.Description
	}
	if serviceID <= 0 {
		s.writeError(w, apperror.NewValidationError("Service is required"))
		return
	}

	req, err := s.store.createRequest(citizen, serviceID, description, docs)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]interface{}{"message": "Application submitted", "request": req})
}

func (s *Server) updateRequestStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var upd domain.StatusUpdate
	if err := decodeBody(r, &upd); err != nil {
		s.writeError(w, err)
		return
	}
	req, err := s.store.updateStatus(id, upd)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"message": "Request updated", "request": req})
}

func (s *Server) deleteRequest(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.store.deleteRequest(id, citizenScope(claimsOf(r))); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"message": "Request deleted"})
}

// --- Notificações ---

func notificationScope(c UserClaims) int64 {
	if c.Role == domain.RoleAdmin {
		return 0
	}
	return c.UserID
}

func (s *Server) listNotifications(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"notifications": s.store.listNotifications(notificationScope(claimsOf(r)))})
}

func (s *Server) markNotificationRead(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	n, err := s.store.markRead(id, notificationScope(claimsOf(r)))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"notification": n})
}

// --- Usuários ---

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"users": s.store.listUsers()})
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var in domain.UserInput
	if err := decodeBody(r, &in); err != nil {
		s.writeError(w, err)
		return
	}
	user, err := s.store.createUser(in)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]interface{}{"message": "User created", "user": user})
}

func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var in domain.UserInput
	if err := decodeBody(r, &in); err != nil {
		s.writeError(w, err)
		return
	}
	user, err := s.store.updateUser(id, in)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"message": "User updated", "user": user})
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if id == claimsOf(r).UserID {
		s.writeError(w, apperror.NewConflictError("You cannot delete your own account"))
		return
	}
	if err := s.store.deleteUser(id); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"message": "User deleted"})
}

// --- Relatórios e pagamentos ---

func (s *Server) reportDashboard(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"dashboard": s.store.dashboard()})
}

func (s *Server) reportStats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"stats": s.store.stats()})
}

func (s *Server) simulatePayment(w http.ResponseWriter, r *http.Request) {
	var in domain.PaymentInput
	if err := decodeBody(r, &in); err != nil {
		s.writeError(w, err)
		return
	}
	payer, err := s.store.user(claimsOf(r).UserID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	p, err := s.store.simulatePayment(payer, in)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]interface{}{"message": "Payment successful", "payment": p})
}

func (s *Server) listPayments(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"payments": s.store.listPayments(citizenScope(claimsOf(r)))})
}

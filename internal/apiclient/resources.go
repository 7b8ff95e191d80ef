package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"egovportal/internal/domain"
)

// DepartmentsAPI agrupa /departments.
type DepartmentsAPI struct{ c *Client }

func (d *DepartmentsAPI) List(ctx context.Context) (*Response, error) {
	return d.c.do(ctx, call{op: "departments.list", method: http.MethodGet, path: "/departments", fallback: "Failed to load departments"})
}

func (d *DepartmentsAPI) Get(ctx context.Context, id int64) (*Response, error) {
	return d.c.do(ctx, call{op: "departments.get", method: http.MethodGet, path: idPath("/departments", id), fallback: "Failed to load department"})
}

func (d *DepartmentsAPI) Create(ctx context.Context, in domain.DepartmentInput) (*Response, error) {
	return d.c.doJSON(ctx, call{op: "departments.create", method: http.MethodPost, path: "/departments", fallback: "Failed to create department"}, in)
}

func (d *DepartmentsAPI) Update(ctx context.Context, id int64, in domain.DepartmentInput) (*Response, error) {
	return d.c.doJSON(ctx, call{op: "departments.update", method: http.MethodPut, path: idPath("/departments", id), fallback: "Failed to update department"}, in)
}

func (d *DepartmentsAPI) Delete(ctx context.Context, id int64) (*Response, error) {
	return d.c.do(ctx, call{op: "departments.delete", method: http.MethodDelete, path: idPath("/departments", id), fallback: "Failed to delete department"})
}

// ServicesAPI agrupa /services.
type ServicesAPI struct{ c *Client }

func (s *ServicesAPI) List(ctx context.Context) (*Response, error) {
	return s.c.do(ctx, call{op: "services.list", method: http.MethodGet, path: "/services", fallback: "Failed to load services"})
}

// ListByDepartment chama GET /services?department={id}.
func (s *ServicesAPI) ListByDepartment(ctx context.Context, departmentID int64) (*Response, error) {
	q := url.Values{}
	q.Set("department", strconv.FormatInt(departmentID, 10))
	return s.c.do(ctx, call{op: "services.list_by_department", method: http.MethodGet, path: "/services", query: q, fallback: "Failed to load services"})
}

func (s *ServicesAPI) Create(ctx context.Context, in domain.ServiceInput) (*Response, error) {
	return s.c.doJSON(ctx, call{op: "services.create", method: http.MethodPost, path: "/services", fallback: "Failed to create service"}, in)
}

func (s *ServicesAPI) Update(ctx context.Context, id int64, in domain.ServiceInput) (*Response, error) {
	return s.c.doJSON(ctx, call{op: "services.update", method: http.MethodPut, path: idPath("/services", id), fallback: "Failed to update service"}, in)
}

func (s *ServicesAPI) Delete(ctx context.Context, id int64) (*Response, error) {
	return s.c.do(ctx, call{op: "services.delete", method: http.MethodDelete, path: idPath("/services", id), fallback: "Failed to delete service"})
}

// UsersAPI agrupa /users (administração).
type UsersAPI struct{ c *Client }

func (u *UsersAPI) List(ctx context.Context) (*Response, error) {
	return u.c.do(ctx, call{op: "users.list", method: http.MethodGet, path: "/users", fallback: "Failed to load users"})
}

func (u *UsersAPI) Create(ctx context.Context, in domain.UserInput) (*Response, error) {
	return u.c.doJSON(ctx, call{op: "users.create", method: http.MethodPost, path: "/users", fallback: "Failed to create user"}, in)
}

func (u *UsersAPI) Update(ctx context.Context, id int64, in domain.UserInput) (*Response, error) {
	return u.c.doJSON(ctx, call{op: "users.update", method: http.MethodPut, path: idPath("/users", id), fallback: "Failed to update user"}, in)
}

func (u *UsersAPI) Delete(ctx context.Context, id int64) (*Response, error) {
	return u.c.do(ctx, call{op: "users.delete", method: http.MethodDelete, path: idPath("/users", id), fallback: "Failed to delete user"})
}

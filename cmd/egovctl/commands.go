package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"egovportal/internal/domain"
	"egovportal/internal/guard"
	"egovportal/internal/pkg/token"
	"egovportal/internal/portal"
)

type command struct {
	name  string
	usage string
	run   func(ctx context.Context, a *app, args []string) error
}

var commandList = []command{
	{"login", "login --portal citizen|officer|admin --email <email> [--password <pw>]", cmdLogin},
	{"register", "register --name <name> --email <email> --password <pw> --confirm <pw> [--phone] [--address]", cmdRegister},
	{"logout", "logout", cmdLogout},
	{"whoami", "whoami", cmdWhoami},
	{"open", "open <path>", cmdOpen},
	{"departments", "departments [list|add|edit <id>|delete <id>] [--name] [--description]", cmdDepartments},
	{"services", "services [list|add|edit <id>|delete <id>] [--department <id>] [--name] [--description] [--fee]", cmdServices},
	{"requests", "requests [--status pending|processing|approved|rejected] [--search <text>]", cmdRequests},
	{"request", "request <id>", cmdRequest},
	{"apply", "apply --service <id> [--description <text>] [--file <path>]...", cmdApply},
	{"withdraw", "withdraw <id>", cmdWithdraw},
	{"process", "process <id> [--notes <text>]", cmdProcess},
	{"approve", "approve <id> [--notes <text>]", cmdApprove},
	{"reject", "reject <id> --notes <reason>", cmdReject},
	{"notifications", "notifications [list|read <id>]", cmdNotifications},
	{"profile", "profile [--name] [--phone] [--address]", cmdProfile},
	{"users", "users [list|add|edit <id>|delete <id>] [--name] [--email] [--password] [--role] [--phone] [--address]", cmdUsers},
	{"reports", "reports", cmdReports},
	{"payments", "payments [list|pay --request <id> --amount <n> [--method card]]", cmdPayments},
}

func lookup(name string) (command, bool) {
	for _, c := range commandList {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "usage: egovctl <command> [arguments]")
	fmt.Fprintln(w)
	for _, c := range commandList {
		fmt.Fprintln(w, "  egovctl", c.usage)
	}
}

// role devolve o papel da sessão atual ("" se deslogado).
func (a *app) role() domain.UserRole {
	return a.store.Snapshot().Role()
}

// --- Autenticação ---

func cmdLogin(ctx context.Context, a *app, args []string) error {
	fs := a.flags("login")
	portalName := fs.String("portal", "citizen", "portal to sign in to: citizen, officer or admin")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password (defaults to $EGOV_PASSWORD)")
	if err := parse(fs, args); err != nil {
		return err
	}
	role, ok := domain.ParseRole(*portalName)
	if !ok {
		return usagef("unknown portal %q", *portalName)
	}
	pw := *password
	if pw == "" {
		pw = os.Getenv("EGOV_PASSWORD")
	}
	if *email == "" || pw == "" {
		return usagef("--email and --password are required")
	}
	if _, err := a.enter(portal.LoginPath(role)); err != nil {
		return err
	}

	result := a.portal.LoginAs(ctx, role, *email, pw)
	if !result.Success {
		return &portal.Error{Message: result.Message}
	}
	fmt.Fprintf(a.out, "Logged in as %s (%s). Home: %s\n", result.Identity.DisplayName(), result.Identity.Role, portal.HomePath(role))
	return nil
}

func cmdRegister(ctx context.Context, a *app, args []string) error {
	fs := a.flags("register")
	var reg domain.Registration
	fs.StringVar(&reg.Name, "name", "", "full name")
	fs.StringVar(&reg.Email, "email", "", "email")
	fs.StringVar(&reg.Password, "password", "", "password")
	fs.StringVar(&reg.ConfirmPassword, "confirm", "", "password confirmation")
	fs.StringVar(&reg.Phone, "phone", "", "phone")
	fs.StringVar(&reg.Address, "address", "", "address")
	if err := parse(fs, args); err != nil {
		return err
	}
	if _, err := a.enter("/citizen/register"); err != nil {
		return err
	}

	result := a.portal.RegisterCitizen(ctx, reg)
	if !result.Success {
		return &portal.Error{Message: result.Message}
	}
	fmt.Fprintf(a.out, "Registered and logged in as %s. Home: %s\n", result.Identity.DisplayName(), portal.HomePath(domain.RoleCitizen))
	return nil
}

func cmdLogout(_ context.Context, a *app, _ []string) error {
	a.portal.Logout()
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func cmdWhoami(_ context.Context, a *app, _ []string) error {
	sess, ok := a.store.Current()
	if !ok {
		return &portal.Error{Message: "Not logged in"}
	}
	u := sess.User
	fmt.Fprintf(a.out, "%s <%s>\nrole: %s\nid: %d\n", u.DisplayName(), u.Email, u.Role, u.ID)

	claims, err := token.Inspect(sess.Token)
	if err != nil {
		fmt.Fprintln(a.out, "token: opaque")
		return nil
	}
	if left, ok := claims.ExpiresIn(time.Now()); ok {
		if left > 0 {
			fmt.Fprintf(a.out, "token expires in %s\n", left.Round(time.Second))
		} else {
			fmt.Fprintln(a.out, "token expired")
		}
	}
	return nil
}

func cmdOpen(ctx context.Context, a *app, args []string) error {
	if len(args) != 1 {
		return usagef("open takes exactly one path")
	}
	m, err := a.enter(args[0])
	if err != nil {
		return err
	}
	return a.render(ctx, m)
}

// --- Catálogo ---

func catalogFlags(a *app, name string) (*catalogInput, func([]string) error) {
	fs := a.flags(name)
	f := &catalogInput{}
	fs.StringVar(&f.name, "name", "", "name")
	fs.StringVar(&f.description, "description", "", "description")
	fs.Int64Var(&f.department, "department", 0, "department id")
	fs.Float64Var(&f.fee, "fee", 0, "fee")
	return f, func(args []string) error { return parse(fs, args) }
}

type catalogInput struct {
	name        string
	description string
	department  int64
	fee         float64
}

func cmdDepartments(ctx context.Context, a *app, args []string) error {
	act, rest := action(args, "list")
	if act == "list" && a.role() != domain.RoleAdmin {
		// Cidadãos veem o catálogo pela tela de solicitação.
		if _, err := a.enter("/citizen/apply"); err != nil {
			return err
		}
		view, err := a.portal.ApplyForm(ctx, 0)
		if err != nil {
			return err
		}
		printDepartments(a.out, view.Departments)
		return nil
	}
	if _, err := a.enter("/admin/departments"); err != nil {
		return err
	}

	switch act {
	case "list":
		depts, err := a.portal.Departments(ctx)
		if err != nil {
			return err
		}
		printDepartments(a.out, depts)
		return nil
	case "add", "edit":
		var id int64
		if act == "edit" {
			var err error
			if id, rest, err = idArg(rest); err != nil {
				return err
			}
		}
		f, parseFlags := catalogFlags(a, "departments "+act)
		if err := parseFlags(rest); err != nil {
			return err
		}
		dept, err := a.portal.SaveDepartment(ctx, id, domain.DepartmentInput{Name: f.name, Description: f.description})
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Department %d saved\n", dept.ID)
		return nil
	case "delete":
		id, _, err := idArg(rest)
		if err != nil {
			return err
		}
		if err := a.portal.DeleteDepartment(ctx, id); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Department deleted")
		return nil
	}
	return usagef("unknown action %q", act)
}

func cmdServices(ctx context.Context, a *app, args []string) error {
	act, rest := action(args, "list")
	if act == "list" && a.role() != domain.RoleAdmin {
		f, parseFlags := catalogFlags(a, "services")
		if err := parseFlags(rest); err != nil {
			return err
		}
		if f.department <= 0 {
			return usagef("--department is required")
		}
		if _, err := a.enter("/citizen/apply"); err != nil {
			return err
		}
		view, err := a.portal.ApplyForm(ctx, f.department)
		if err != nil {
			return err
		}
		printServices(a.out, view.Services)
		return nil
	}
	if _, err := a.enter("/admin/services"); err != nil {
		return err
	}

	switch act {
	case "list":
		services, err := a.portal.Services(ctx)
		if err != nil {
			return err
		}
		printServices(a.out, services)
		return nil
	case "add", "edit":
		var id int64
		if act == "edit" {
			var err error
			if id, rest, err = idArg(rest); err != nil {
				return err
			}
		}
		f, parseFlags := catalogFlags(a, "services "+act)
		if err := parseFlags(rest); err != nil {
			return err
		}
		svc, err := a.portal.SaveService(ctx, id, domain.ServiceInput{
			DepartmentID: f.department,
			Name:         f.name,
			Description:  f.description,
			Fee:          f.fee,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Service %d saved\n", svc.ID)
		return nil
	case "delete":
		id, _, err := idArg(rest)
		if err != nil {
			return err
		}
		if err := a.portal.DeleteService(ctx, id); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Service deleted")
		return nil
	}
	return usagef("unknown action %q", act)
}

// --- Solicitações ---

func cmdRequests(ctx context.Context, a *app, args []string) error {
	fs := a.flags("requests")
	status := fs.String("status", "", "filter by status")
	search := fs.String("search", "", "filter by text")
	if err := parse(fs, args); err != nil {
		return err
	}
	filter := portal.RequestFilter{Status: domain.RequestStatus(*status), Search: *search}

	if a.role() == domain.RoleOfficer {
		if _, err := a.enter("/officer/dashboard"); err != nil {
			return err
		}
		view, err := a.portal.OfficerDashboard(ctx, filter)
		if err != nil {
			return err
		}
		printStats(a.out, view.Stats)
		printRequests(a.out, view.Requests, true)
		return nil
	}

	if _, err := a.enter("/citizen/requests"); err != nil {
		return err
	}
	reqs, err := a.portal.TrackRequests(ctx, filter)
	if err != nil {
		return err
	}
	printRequests(a.out, reqs, false)
	return nil
}

func cmdRequest(ctx context.Context, a *app, args []string) error {
	id, _, err := idArg(args)
	if err != nil {
		return err
	}
	m, err := a.enter("/officer/request/" + strconv.FormatInt(id, 10))
	if err != nil {
		return err
	}
	return a.render(ctx, m)
}

func cmdApply(ctx context.Context, a *app, args []string) error {
	fs := a.flags("apply")
	serviceID := fs.Int64("service", 0, "service id")
	description := fs.String("description", "", "description")
	var files repeatStringFlag
	fs.Var(&files, "file", "document to attach (repeatable)")
	if err := parse(fs, args); err != nil {
		return err
	}
	if _, err := a.enter("/citizen/apply"); err != nil {
		return err
	}

	in := domain.NewRequest{ServiceID: *serviceID, Description: *description}
	for _, path := range files {
		content, err := os.ReadFile(path)
		if err != nil {
			return &portal.Error{Message: "Could not read " + path, Err: err}
		}
		in.Documents = append(in.Documents, domain.Upload{Name: filepath.Base(path), Content: content})
	}

	req, err := a.portal.Apply(ctx, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Application submitted successfully! Request #%d (%s)\n", req.ID, req.Status)
	return nil
}

func cmdWithdraw(ctx context.Context, a *app, args []string) error {
	id, _, err := idArg(args)
	if err != nil {
		return err
	}
	if _, err := a.enter("/citizen/requests"); err != nil {
		return err
	}
	if err := a.portal.WithdrawRequest(ctx, id); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Request withdrawn")
	return nil
}

func decision(name string, fn func(p *portal.Portal, ctx context.Context, id int64, notes string) (domain.ServiceRequest, error)) func(context.Context, *app, []string) error {
	return func(ctx context.Context, a *app, args []string) error {
		id, rest, err := idArg(args)
		if err != nil {
			return err
		}
		fs := a.flags(name)
		notes := fs.String("notes", "", "officer notes")
		if err := parse(fs, rest); err != nil {
			return err
		}
		if _, err := a.enter("/officer/request/" + strconv.FormatInt(id, 10)); err != nil {
			return err
		}
		req, err := fn(a.portal, ctx, id, *notes)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Request #%d is now %s\n", req.ID, req.Status)
		return nil
	}
}

var (
	cmdProcess = decision("process", (*portal.Portal).StartProcessing)
	cmdApprove = decision("approve", (*portal.Portal).Approve)
	cmdReject  = decision("reject", (*portal.Portal).Reject)
)

// --- Notificações, perfil e pagamentos ---

func cmdNotifications(ctx context.Context, a *app, args []string) error {
	path := "/citizen/notifications"
	if a.role() == domain.RoleAdmin {
		path = "/admin/notifications"
	}
	if _, err := a.enter(path); err != nil {
		return err
	}

	act, rest := action(args, "list")
	switch act {
	case "list":
		notes, err := a.portal.Notifications(ctx)
		if err != nil {
			return err
		}
		printNotifications(a.out, notes)
		return nil
	case "read":
		id, _, err := idArg(rest)
		if err != nil {
			return err
		}
		if err := a.portal.MarkNotificationRead(ctx, id); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Notification marked as read")
		return nil
	}
	return usagef("unknown action %q", act)
}

func cmdProfile(ctx context.Context, a *app, args []string) error {
	fs := a.flags("profile")
	var upd domain.ProfileUpdate
	fs.StringVar(&upd.Name, "name", "", "new name")
	fs.StringVar(&upd.Phone, "phone", "", "new phone")
	fs.StringVar(&upd.Address, "address", "", "new address")
	if err := parse(fs, args); err != nil {
		return err
	}
	if _, err := a.enter("/citizen/profile"); err != nil {
		return err
	}

	if upd == (domain.ProfileUpdate{}) {
		user, err := a.portal.Profile(ctx)
		if err != nil {
			return err
		}
		printIdentity(a.out, user)
		return nil
	}
	user, err := a.portal.UpdateProfile(ctx, upd)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Profile updated successfully!")
	printIdentity(a.out, user)
	return nil
}

func cmdPayments(ctx context.Context, a *app, args []string) error {
	if _, err := a.enter("/citizen/payments"); err != nil {
		return err
	}
	act, rest := action(args, "list")
	switch act {
	case "list":
		payments, err := a.portal.Payments(ctx)
		if err != nil {
			return err
		}
		printPayments(a.out, payments)
		return nil
	case "pay":
		fs := a.flags("payments pay")
		var in domain.PaymentInput
		fs.Int64Var(&in.RequestID, "request", 0, "request id")
		fs.Float64Var(&in.Amount, "amount", 0, "amount")
		fs.StringVar(&in.Method, "method", "card", "payment method")
		if err := parse(fs, rest); err != nil {
			return err
		}
		p, err := a.portal.Pay(ctx, in)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Payment %s completed (%.2f)\n", p.TransactionID, p.Amount)
		return nil
	}
	return usagef("unknown action %q", act)
}

// --- Administração ---

func cmdUsers(ctx context.Context, a *app, args []string) error {
	if _, err := a.enter("/admin/users"); err != nil {
		return err
	}
	act, rest := action(args, "list")
	switch act {
	case "list":
		users, err := a.portal.Users(ctx)
		if err != nil {
			return err
		}
		printUsers(a.out, users)
		return nil
	case "add", "edit":
		var id int64
		if act == "edit" {
			var err error
			if id, rest, err = idArg(rest); err != nil {
				return err
			}
		}
		fs := a.flags("users " + act)
		var in domain.UserInput
		var role string
		fs.StringVar(&in.Name, "name", "", "name")
		fs.StringVar(&in.Email, "email", "", "email")
		fs.StringVar(&in.Password, "password", "", "password")
		fs.StringVar(&role, "role", "", "citizen, officer or admin")
		fs.StringVar(&in.Phone, "phone", "", "phone")
		fs.StringVar(&in.Address, "address", "", "address")
		if err := parse(fs, rest); err != nil {
			return err
		}
		if role != "" {
			r, ok := domain.ParseRole(role)
			if !ok {
				return usagef("unknown role %q", role)
			}
			in.Role = r
		}
		user, err := a.portal.SaveUser(ctx, id, in)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "User %d saved\n", user.ID)
		return nil
	case "delete":
		id, _, err := idArg(rest)
		if err != nil {
			return err
		}
		if err := a.portal.DeleteUser(ctx, id); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "User deleted")
		return nil
	}
	return usagef("unknown action %q", act)
}

func cmdReports(ctx context.Context, a *app, _ []string) error {
	m, err := a.enter("/admin/reports")
	if err != nil {
		return err
	}
	dash, err := a.portal.AdminDashboard(ctx)
	if err != nil {
		return err
	}
	printDashboard(a.out, dash)
	return a.render(ctx, m)
}

// render mostra a tela de uma rota já liberada pela guarda.
func (a *app) render(ctx context.Context, m guard.Match) error {
	switch m.Route.Page {
	case guard.PageLanding:
		fmt.Fprintln(a.out, "e-Government Portal")
		for _, role := range []domain.UserRole{domain.RoleCitizen, domain.RoleOfficer, domain.RoleAdmin} {
			fmt.Fprintf(a.out, "  %-8s %s\n", role, portal.LoginPath(role))
		}
		return nil
	case guard.PageCitizenLogin, guard.PageOfficerLogin, guard.PageAdminLogin:
		fmt.Fprintln(a.out, "Sign in with: egovctl login --portal <citizen|officer|admin> --email <email>")
		return nil
	case guard.PageCitizenRegister:
		fmt.Fprintln(a.out, "Create an account with: egovctl register --name <name> --email <email> --password <pw> --confirm <pw>")
		return nil
	case guard.PageCitizenDashboard:
		view, err := a.portal.CitizenDashboard(ctx)
		if err != nil {
			return err
		}
		a.printShell()
		printStats(a.out, view.Stats)
		printRequests(a.out, view.Recent, false)
		return nil
	case guard.PageCitizenApply:
		view, err := a.portal.ApplyForm(ctx, 0)
		if err != nil {
			return err
		}
		printDepartments(a.out, view.Departments)
		return nil
	case guard.PageCitizenRequests:
		reqs, err := a.portal.TrackRequests(ctx, portal.RequestFilter{})
		if err != nil {
			return err
		}
		printRequests(a.out, reqs, false)
		return nil
	case guard.PageCitizenNotifications, guard.PageAdminNotifications:
		notes, err := a.portal.Notifications(ctx)
		if err != nil {
			return err
		}
		printNotifications(a.out, notes)
		return nil
	case guard.PageCitizenProfile:
		user, err := a.portal.Profile(ctx)
		if err != nil {
			return err
		}
		printIdentity(a.out, user)
		return nil
	case guard.PageCitizenPayments:
		payments, err := a.portal.Payments(ctx)
		if err != nil {
			return err
		}
		printPayments(a.out, payments)
		return nil
	case guard.PageOfficerDashboard:
		view, err := a.portal.OfficerDashboard(ctx, portal.RequestFilter{})
		if err != nil {
			return err
		}
		a.printShell()
		printStats(a.out, view.Stats)
		printRequests(a.out, view.Requests, true)
		return nil
	case guard.PageOfficerRequest:
		id, err := parseID(m.Params["id"])
		if err != nil {
			return err
		}
		req, err := a.portal.RequestDetail(ctx, id)
		if err != nil {
			return err
		}
		printRequestDetail(a.out, req)
		return nil
	case guard.PageAdminDashboard:
		dash, err := a.portal.AdminDashboard(ctx)
		if err != nil {
			return err
		}
		a.printShell()
		printDashboard(a.out, dash)
		return nil
	case guard.PageAdminDepartments:
		depts, err := a.portal.Departments(ctx)
		if err != nil {
			return err
		}
		printDepartments(a.out, depts)
		return nil
	case guard.PageAdminServices:
		services, err := a.portal.Services(ctx)
		if err != nil {
			return err
		}
		printServices(a.out, services)
		return nil
	case guard.PageAdminUsers:
		users, err := a.portal.Users(ctx)
		if err != nil {
			return err
		}
		printUsers(a.out, users)
		return nil
	case guard.PageAdminReports:
		stats, err := a.portal.Reports(ctx)
		if err != nil {
			return err
		}
		printStatsReport(a.out, stats)
		return nil
	}
	return &portal.Error{Message: "Page not found: " + m.Route.Pattern}
}

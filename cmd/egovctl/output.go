package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"egovportal/internal/domain"
)

const dateLayout = "2006-01-02 15:04"

func table(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func (a *app) printShell() {
	shell, ok := a.portal.Shell()
	if !ok {
		return
	}
	labels := make([]string, 0, len(shell.Menu))
	for _, item := range shell.Menu {
		labels = append(labels, item.Label+" ("+item.Path+")")
	}
	fmt.Fprintf(a.out, "%s | %s\n", shell.Title, shell.DisplayName)
	fmt.Fprintf(a.out, "Menu: %s\n\n", strings.Join(labels, ", "))
}

func printStats(w io.Writer, s domain.RequestStats) {
	fmt.Fprintf(w, "Total: %d  Pending: %d  Processing: %d  Approved: %d  Rejected: %d\n\n",
		s.Total, s.Pending, s.Processing, s.Approved, s.Rejected)
}

func printRequests(w io.Writer, reqs []domain.ServiceRequest, withCitizen bool) {
	if len(reqs) == 0 {
		fmt.Fprintln(w, "No requests found")
		return
	}
	tw := table(w)
	if withCitizen {
		fmt.Fprintln(tw, "ID\tSERVICE\tCITIZEN\tSTATUS\tCREATED")
	} else {
		fmt.Fprintln(tw, "ID\tSERVICE\tSTATUS\tCREATED")
	}
	for _, r := range reqs {
		if withCitizen {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", r.ID, r.ServiceName, r.CitizenName, r.Status, r.CreatedAt.Format(dateLayout))
		} else {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", r.ID, r.ServiceName, r.Status, r.CreatedAt.Format(dateLayout))
		}
	}
	tw.Flush()
}

func printRequestDetail(w io.Writer, r domain.ServiceRequest) {
	fmt.Fprintf(w, "Request #%d\n", r.ID)
	fmt.Fprintf(w, "Service:     %s\n", r.ServiceName)
	fmt.Fprintf(w, "Citizen:     %s <%s>\n", r.CitizenName, r.CitizenEmail)
	fmt.Fprintf(w, "Status:      %s\n", r.Status)
	fmt.Fprintf(w, "Created:     %s\n", r.CreatedAt.Format(dateLayout))
	if r.Description != "" {
		fmt.Fprintf(w, "Description: %s\n", r.Description)
	}
	if r.OfficerNotes != "" {
		fmt.Fprintf(w, "Notes:       %s\n", r.OfficerNotes)
	}
	for _, d := range r.Documents {
		fmt.Fprintf(w, "Document:    %s (%d bytes)\n", d.Name, d.Size)
	}
}

func printDepartments(w io.Writer, depts []domain.Department) {
	if len(depts) == 0 {
		fmt.Fprintln(w, "No departments found")
		return
	}
	tw := table(w)
	fmt.Fprintln(tw, "ID\tNAME\tDESCRIPTION")
	for _, d := range depts {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", d.ID, d.Name, d.Description)
	}
	tw.Flush()
}

func printServices(w io.Writer, services []domain.Service) {
	if len(services) == 0 {
		fmt.Fprintln(w, "No services found")
		return
	}
	tw := table(w)
	fmt.Fprintln(tw, "ID\tNAME\tDEPARTMENT\tFEE")
	for _, s := range services {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.2f\n", s.ID, s.Name, s.DepartmentName, s.Fee)
	}
	tw.Flush()
}

func printNotifications(w io.Writer, notes []domain.Notification) {
	if len(notes) == 0 {
		fmt.Fprintln(w, "No notifications")
		return
	}
	tw := table(w)
	fmt.Fprintln(tw, "ID\tREAD\tTITLE\tMESSAGE")
	for _, n := range notes {
		read := " "
		if n.Read {
			read = "x"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", n.ID, read, n.Title, n.Message)
	}
	tw.Flush()
}

func printIdentity(w io.Writer, u domain.Identity) {
	fmt.Fprintf(w, "Name:    %s\n", u.Name)
	fmt.Fprintf(w, "Email:   %s\n", u.Email)
	fmt.Fprintf(w, "Phone:   %s\n", u.Phone)
	fmt.Fprintf(w, "Address: %s\n", u.Address)
}

func printPayments(w io.Writer, payments []domain.Payment) {
	if len(payments) == 0 {
		fmt.Fprintln(w, "No payments found")
		return
	}
	tw := table(w)
	fmt.Fprintln(tw, "ID\tREQUEST\tAMOUNT\tSTATUS\tTRANSACTION")
	for _, p := range payments {
		fmt.Fprintf(tw, "%d\t%d\t%.2f\t%s\t%s\n", p.ID, p.RequestID, p.Amount, p.Status, p.TransactionID)
	}
	tw.Flush()
}

func printUsers(w io.Writer, users []domain.Identity) {
	if len(users) == 0 {
		fmt.Fprintln(w, "No users found")
		return
	}
	tw := table(w)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tROLE")
	for _, u := range users {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", u.ID, u.Name, u.Email, u.Role)
	}
	tw.Flush()
}

func printDashboard(w io.Writer, d domain.DashboardReport) {
	fmt.Fprintf(w, "Users: %d  Departments: %d  Services: %d  Revenue: %.2f\n",
		d.TotalUsers, d.TotalDepartments, d.TotalServices, d.Revenue)
	printStats(w, d.Requests)
}

func printStatsReport(w io.Writer, s domain.StatsReport) {
	statuses := make([]string, 0, len(s.ByStatus))
	for st := range s.ByStatus {
		statuses = append(statuses, string(st))
	}
	sort.Strings(statuses)

	tw := table(w)
	fmt.Fprintln(tw, "STATUS\tCOUNT")
	for _, st := range statuses {
		fmt.Fprintf(tw, "%s\t%d\n", st, s.ByStatus[domain.RequestStatus(st)])
	}
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "SERVICE\tCOUNT")
	for _, ss := range s.ByService {
		fmt.Fprintf(tw, "%s\t%d\n", ss.ServiceName, ss.Count)
	}
	tw.Flush()
}

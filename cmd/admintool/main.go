package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"muvbackoffice/internal/config"
	"muvbackoffice/internal/db"
	"muvbackoffice/internal/models"
	"muvbackoffice/internal/store"

	"github.com/olekukonko/tablewriter"
)

func main() {
	recent := flag.Int("recent", 0, "print the N most recent orders")
	status := flag.String("status", "", "print orders with this status")
	admins := flag.Bool("admins", false, "print the stored admin allow-list")
	flag.Parse()

	if *recent <= 0 && *status == "" && !*admins {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer pool.Close()

	st := store.New(pool)

	if *recent > 0 {
		orders, err := st.ListRecentOrders(ctx, *recent)
		if err != nil {
			log.Fatalf("list recent orders failed: %v", err)
		}
		printOrders(orders)
	}

	if *status != "" {
		orders, err := st.ListOrdersByStatus(ctx, models.OrderStatus(*status))
		if err != nil {
			log.Fatalf("list orders by status failed: %v", err)
		}
		printOrders(orders)
	}

	if *admins {
		list, err := st.ListAdmins(ctx)
		if err != nil {
			log.Fatalf("list admins failed: %v", err)
		}
		printAdmins(list)
	}
}

func printOrders(orders []*models.Order) {
	table := tablewriter.NewTable(os.Stdout)
	table.Header("Tracking", "User", "Product", "Qty", "Amount", "Status", "Payment", "Created")
	for _, o := range orders {
		table.Append([]string{
			o.TrackingID,
			o.UserID,
			o.ProductType,
			fmt.Sprintf("%d", o.Quantity),
			fmt.Sprintf("%.2f", o.TotalAmount),
			string(o.Status),
			string(o.PaymentStatus),
			o.CreatedAt.Format("2006-01-02 15:04"),
		})
	}
	if err := table.Render(); err != nil {
		log.Fatalf("render orders table failed: %v", err)
	}
}

func printAdmins(admins []models.Admin) {
	table := tablewriter.NewTable(os.Stdout)
	table.Header("Email", "Name")
	for _, a := range admins {
		table.Append([]string{a.Email, a.Name})
	}
	if err := table.Render(); err != nil {
		log.Fatalf("render admins table failed: %v", err)
	}
}

package main

import (
	"context"
	"flag"
	"os"
	"strconv"
	"time"

	"github.com/ashendes/retail-api/internal/config"
	"github.com/ashendes/retail-api/internal/models"
	"github.com/ashendes/retail-api/internal/store"
	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

func init() {
	// Initialize logger
	log.SetFormatter(&log.JSONFormatter{})
	log.SetLevel(log.InfoLevel)
}

func sampleCustomers(joined time.Time) []models.Customer {
	return []models.Customer{
		{Name: "Ada Lovelace", Email: "ada@example.com", JoinDate: joined},
		{Name: "Grace Hopper", Email: "grace@example.com", JoinDate: joined},
		{Name: "Alan Turing", Email: "alan@example.com", JoinDate: joined},
	}
}

func sampleItems() []models.Item {
	price := decimal.RequireFromString
	return []models.Item{
		{Name: "Laptop", Brand: "Acme", Price: price("999.99"), Available: true},
		{Name: "Mouse", Brand: "Acme", Price: price("29.99"), Available: true},
		{Name: "Keyboard", Brand: "Acme", Price: price("79.99"), Available: true},
		{Name: "Monitor", Brand: "Acme", Price: price("299.99"), Available: true},
		{Name: "Headphones", Brand: "Acme", Price: price("149.99"), Available: false},
	}
}

func main() {
	migrate := flag.Bool("migrate", true, "create or update the schema before seeding")
	timeout := flag.Duration("timeout", 30*time.Second, "overall deadline")
	flag.Parse()

	dbCfg, err := config.LoadDatabase()
	if err != nil {
		log.Fatal("Invalid configuration: ", err)
	}
	if dbCfg.Driver == store.DriverMemory {
		log.Fatal("Seeding the in-memory store has no lasting effect; set DB_DRIVER and DATABASE_URL")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	gs, err := store.Open(dbCfg)
	if err != nil {
		log.Fatal("Failed to open store: ", err)
	}
	defer gs.Close()

	if *migrate {
		if err := gs.Migrate(ctx); err != nil {
			log.Fatal("Failed to migrate schema: ", err)
		}
	}

	y, m, d := time.Now().Date()
	if err := store.SeedCatalog(ctx, gs, sampleCustomers(time.Date(y, m, d, 0, 0, 0, 0, time.UTC)), sampleItems()); err != nil {
		log.Fatal("Failed to seed catalog: ", err)
	}

	items, err := gs.Items().List(ctx)
	if err != nil {
		log.Fatal("Failed to list items: ", err)
	}
	customers, err := gs.Customers().Count(ctx)
	if err != nil {
		log.Fatal("Failed to count customers: ", err)
	}

	log.WithFields(log.Fields{
		"customers": customers,
		"items":     len(items),
	}).Info("Catalog seeded")

	if err := printItems(items); err != nil {
		log.Fatal("Failed to print catalog: ", err)
	}
}

func printItems(items []models.Item) error {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("ID", "Name", "Brand", "Price", "Available")
	for _, item := range items {
		if err := table.Append([]string{
			strconv.FormatUint(uint64(item.ID), 10),
			item.Name,
			item.Brand,
			item.Price.StringFixed(2),
			strconv.FormatBool(item.Available),
		}); err != nil {
			return err
		}
	}
	return table.Render()
}

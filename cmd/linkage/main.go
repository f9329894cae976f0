package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/pha-linkage/internal/config"
	"github.com/pha-linkage/internal/db"
	"github.com/pha-linkage/internal/etl"
	"github.com/pha-linkage/internal/record"
	"github.com/pha-linkage/internal/web"
)

var (
	// Global database connection
	dbConn *db.Connection

	// Global flags
	fieldsPath string
	debugMode  bool
)

func main() {
	config.LoadEnv()

	var err error
	dbConn, err = db.NewConnection()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer dbConn.Close()

	rootCmd := &cobra.Command{
		Use:   "linkage",
		Short: "Housing authority tenancy identity normalization",
		Long:  `Merges the KCHA and SHA tenancy extracts and generates cleaned identity fields and candidate matching keys for downstream deduplication`,
	}

	rootCmd.PersistentFlags().StringVar(&fieldsPath, "fields", "fields.toml", "Field role configuration file")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", config.GetEnvBool("LINKAGE_DEBUG", false), "Enable debug output")

	rootCmd.AddCommand(createPingCmd())
	rootCmd.AddCommand(createInitCmd())
	rootCmd.AddCommand(createImportCmd())
	rootCmd.AddCommand(createCombineCmd())
	rootCmd.AddCommand(createNormalizeCmd())
	rootCmd.AddCommand(createExportCmd())
	rootCmd.AddCommand(createServeCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// newPipeline builds an ETL pipeline from the configured field roles.
func newPipeline() *etl.Pipeline {
	fields, err := config.LoadFields(fieldsPath)
	if err != nil {
		log.Fatalf("Failed to load field configuration: %v", err)
	}
	return etl.NewPipeline(dbConn.DB, fields)
}

// createPingCmd creates a command to test database connectivity
func createPingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Test database connectivity",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("Database connection successful!")

			var count int
			err := dbConn.DB.QueryRow("SELECT COUNT(*) FROM person_period").Scan(&count)
			if err != nil {
				log.Printf("Error counting person_period records: %v", err)
			} else {
				fmt.Printf("Person-period records loaded: %d\n", count)
			}

			err = dbConn.DB.QueryRow("SELECT COUNT(*) FROM person_period_enriched").Scan(&count)
			if err != nil {
				log.Printf("Error counting enriched records: %v", err)
			} else {
				fmt.Printf("Enriched records: %d\n", count)
			}
		},
	}
}

// createInitCmd creates the schema initialization command
func createInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create pipeline tables",
		Run: func(cmd *cobra.Command, args []string) {
			if err := newPipeline().EnsureSchema(debugMode); err != nil {
				log.Fatalf("Schema initialization failed: %v", err)
			}
			fmt.Println("Pipeline schema ready")
		},
	}
}

// createImportCmd creates the import subcommand
func createImportCmd() *cobra.Command {
	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Import agency tenancy extracts",
		Long:  `Import CSV tenancy extracts from the two source housing authorities into staging`,
	}

	importCmd.AddCommand(createImportSourceCmd(record.SourceKCHA, "KCHA tenancy extract"))
	importCmd.AddCommand(createImportSourceCmd(record.SourceSHA, "SHA tenancy extract"))

	return importCmd
}

func createImportSourceCmd(source, short string) *cobra.Command {
	return &cobra.Command{
		Use:   source + " [filename]",
		Short: "Import " + short + " CSV",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if err := newPipeline().LoadTenancy(debugMode, source, args[0]); err != nil {
				log.Fatalf("Import failed: %v", err)
			}
			fmt.Printf("Imported %s extract from %s\n", source, args[0])
		},
	}
}

// createCombineCmd creates the staging union command
func createCombineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "combine",
		Short: "Union the two staged extracts into person_period",
		Run: func(cmd *cobra.Command, args []string) {
			if err := newPipeline().Combine(debugMode); err != nil {
				log.Fatalf("Combine failed: %v", err)
			}
			fmt.Println("Combined staging tables into person_period")
		},
	}
}

// createNormalizeCmd creates the normalization run command
func createNormalizeCmd() *cobra.Command {
	var workers int

	normalizeCmd := &cobra.Command{
		Use:   "normalize",
		Short: "Run the identity normalization engine",
		Long:  `Runs field normalization, identifier classification, name decomposition, matching key generation and per-identity aggregation, and persists the enriched snapshot`,
		Run: func(cmd *cobra.Command, args []string) {
			if err := newPipeline().Normalize(debugMode, workers); err != nil {
				log.Fatalf("Normalization failed: %v", err)
			}
			fmt.Println("Normalization complete")
		},
	}

	normalizeCmd.Flags().IntVar(&workers, "workers", 0, "Worker count for row-local stages (0 = one per CPU)")
	return normalizeCmd
}

// createExportCmd creates the enriched snapshot export command
func createExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [filename]",
		Short: "Export the enriched snapshot to CSV",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if err := newPipeline().Export(debugMode, args[0]); err != nil {
				log.Fatalf("Export failed: %v", err)
			}
			fmt.Printf("Exported enriched snapshot to %s\n", args[0])
		},
	}
}

// createServeCmd creates the inspection API command
func createServeCmd() *cobra.Command {
	var configFile string

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON inspection API",
		Run: func(cmd *cobra.Command, args []string) {
			webConfig := web.DefaultConfig()
			if configFile != "" {
				loaded, err := web.LoadConfig(configFile)
				if err != nil {
					log.Fatalf("Failed to load server config: %v", err)
				}
				webConfig = loaded
			}

			server, err := web.NewServer(webConfig)
			if err != nil {
				log.Fatalf("Failed to create server: %v", err)
			}

			if err := server.Start(); err != nil {
				log.Fatalf("Server failed: %v", err)
			}
		},
	}

	serveCmd.Flags().StringVar(&configFile, "config", "", "Server configuration JSON file")
	return serveCmd
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/mmagrifocus/poultry_backend/appctx"
	"github.com/mmagrifocus/poultry_backend/config"
	"github.com/mmagrifocus/poultry_backend/models"
)

// Removes one upload and all of its delivery records. Deletion is an ops
// action, never something the reporting engine does on its own.
func main() {
	uploadID := flag.Int("id", 0, "Upload id to delete")
	filename := flag.String("filename", "", "Upload filename to delete (alternative to --id)")
	dryRun := flag.Bool("dry-run", false, "Print what would be deleted without deleting")
	flag.Parse()

	if *uploadID <= 0 && strings.TrimSpace(*filename) == "" {
		fmt.Fprintln(os.Stderr, "--id or --filename is required")
		os.Exit(1)
	}

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}

	ctx := appctx.Set(context.Background(), appctx.ContextKeyActor, "System")

	var upload *models.Upload
	var err error
	if *uploadID > 0 {
		upload, err = models.GetUploadByID(ctx, *uploadID)
	} else {
		upload, err = models.GetUploadByFilename(ctx, strings.TrimSpace(*filename))
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "lookup failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("upload %d (%s): processed=%v total_rows=%d\n",
		upload.ID, upload.Filename, upload.Processed, upload.TotalRows)
	if *dryRun {
		fmt.Println("dry run; nothing deleted")
		return
	}

	if err := models.DeleteUploadCascade(ctx, upload.ID); err != nil {
		fmt.Fprintf(os.Stderr, "delete failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("deleted upload %d and its delivery records\n", upload.ID)
}

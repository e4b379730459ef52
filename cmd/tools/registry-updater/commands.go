package main

import (
	"fmt"

	"studyabroad-workers/internal/workers"
	"studyabroad-workers/pkg/registry"

	"github.com/spf13/cobra"
)

var (
	addID          string
	addDisplayName string
	addDescription string
	addCategory    string
	addTaskType    string
	addVersion     string
	addStatus      string

	updateID    string
	updateField string
	updateValue string

	syncVersion string
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a planned activity to the registry",
	RunE: func(cmd *cobra.Command, _ []string) error {
		reg, err := registry.LoadOrNew(registryPath)
		if err != nil {
			return fmt.Errorf("failed to load registry: %w", err)
		}
		taskType := addTaskType
		if taskType == "" {
			taskType = addID
		}
		err = reg.Add(registry.Activity{
			ID:                   addID,
			DisplayName:          addDisplayName,
			Description:          addDescription,
			Category:             addCategory,
			Version:              addVersion,
			TaskType:             taskType,
			ImplementationStatus: addStatus,
			InputSchema:          map[string]interface{}{},
			OutputSchema:         map[string]interface{}{},
			ErrorCodes:           []string{},
			Timeout:              "10s",
			Workflows:            []string{},
			Tags:                 []string{},
		})
		if err != nil {
			return err
		}
		if err := reg.Save(registryPath); err != nil {
			return err
		}
		cmd.Printf("Added activity: %s\n", addID)
		return nil
	},
}

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update one field of an activity",
	RunE: func(cmd *cobra.Command, _ []string) error {
		reg, err := registry.LoadRegistry(registryPath)
		if err != nil {
			return fmt.Errorf("failed to load registry: %w", err)
		}
		if err := reg.SetField(updateID, updateField, updateValue); err != nil {
			return err
		}
		if err := reg.Save(registryPath); err != nil {
			return err
		}
		cmd.Printf("Updated activity %s, field %s to %s\n", updateID, updateField, updateValue)
		return nil
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the registry file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		reg, err := registry.LoadRegistry(registryPath)
		if err != nil {
			return fmt.Errorf("failed to load registry: %w", err)
		}
		if err := reg.Validate(); err != nil {
			return fmt.Errorf("registry validation failed: %w", err)
		}
		cmd.Printf("Registry validation passed. Found %d activities.\n", len(reg.Activities))
		return nil
	},
}

// syncCmd regenerates the entries of the implemented workers from their
// declared schemas, leaving other activities alone.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Write the implemented workers and their schemas into the registry",
	RunE: func(cmd *cobra.Command, _ []string) error {
		reg, err := registry.LoadOrNew(registryPath)
		if err != nil {
			return fmt.Errorf("failed to load registry: %w", err)
		}
		added, replaced := 0, 0
		for _, d := range workers.Definitions() {
			if reg.Upsert(d.Activity(syncVersion)) {
				replaced++
			} else {
				added++
			}
		}
		if err := reg.Save(registryPath); err != nil {
			return err
		}
		cmd.Printf("Synced registry: %d added, %d replaced\n", added, replaced)
		return nil
	},
}

func init() {
	addCmd.Flags().StringVar(&addID, "id", "", "Activity ID (e.g. lock-university)")
	addCmd.Flags().StringVar(&addDisplayName, "displayName", "", "Display name")
	addCmd.Flags().StringVar(&addDescription, "description", "", "Description")
	addCmd.Flags().StringVar(&addCategory, "category", "", "Category (readiness, discovery, applications)")
	addCmd.Flags().StringVar(&addTaskType, "taskType", "", "Job type; defaults to the id")
	addCmd.Flags().StringVar(&addVersion, "version", "1.0.0", "Version")
	addCmd.Flags().StringVar(&addStatus, "status", registry.StatusPlanned, "Implementation status (planned, in-progress, completed, verified)")
	for _, f := range []string{"id", "displayName", "category"} {
		if err := addCmd.MarkFlagRequired(f); err != nil {
			panic(fmt.Sprintf("failed to mark %s flag as required: %v", f, err))
		}
	}

	updateCmd.Flags().StringVar(&updateID, "id", "", "Activity ID to update")
	updateCmd.Flags().StringVar(&updateField, "field", "", "Field to update (status, version, timeout, retries, ...)")
	updateCmd.Flags().StringVar(&updateValue, "value", "", "New value for the field")
	for _, f := range []string{"id", "field", "value"} {
		if err := updateCmd.MarkFlagRequired(f); err != nil {
			panic(fmt.Sprintf("failed to mark %s flag as required: %v", f, err))
		}
	}

	syncCmd.Flags().StringVar(&syncVersion, "version", "1.0.0", "Version stamped on synced activities")

	rootCmd.AddCommand(addCmd, updateCmd, validateCmd, syncCmd)
}

package cli

import (
	"fmt"

	"scholar-tracker/models"
	"scholar-tracker/report"
	"scholar-tracker/services"
	"scholar-tracker/utils"

	"github.com/spf13/cobra"
)

func (a *app) initDBCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "init-db",
		Aliases: []string{"init_db"},
		Short:   "Create the database tables",
		Long:    "Creates the scholar and track tables. Existing tables and rows are kept.",
		Example: "  " + progName + " init-db\n  " + progName + " --db /var/lib/axie/axieST.db init-db",
		RunE: a.verb(false, func(cmd *cobra.Command, pairs Pairs) error {
			if err := pairs.Only(); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprint(out, "Initializing empty database ...")
			if err := utils.Migrate(a.db); err != nil {
				fmt.Fprintln(out)
				return err
			}
			fmt.Fprintln(out, "done.")
			return nil
		}),
	}
}

func (a *app) addScholarCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "add-scholar internal_id=... ronin_id=... [field=value ...]",
		Aliases: []string{"add_scholar"},
		Short:   "Add a new scholar to the database",
		Long: "Required fields are internal_id and ronin_id. Optional: name, battle_name,\n" +
			"join_date (defaults to now) and is_active (defaults to true).",
		Example: "  " + progName + " add-scholar internal_id=42 ronin_id=ronin:1234567890abcdef name=antani\n" +
			"  " + progName + " add-scholar internal_id=43 ronin_id=0xabcdef join_date=2022-01-01T00:00:00+00:00",
		RunE: a.verb(true, func(cmd *cobra.Command, pairs Pairs) error {
			if err := pairs.Only(models.ScholarWritableFields...); err != nil {
				return err
			}
			internalID, err := pairs.Require("internal_id")
			if err != nil {
				return err
			}
			roninID, err := pairs.Require("ronin_id")
			if err != nil {
				return err
			}

			scholar := models.NewScholar(internalID, roninID)
			for _, key := range pairs.Keys() {
				value, _ := pairs.Get(key)
				if err := scholar.SetField(key, value); err != nil {
					return asUsage(err)
				}
			}

			if err := services.NewScholarService(a.db).Create(scholar); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added scholar %s.\n", scholar.InternalID)
			return nil
		}),
	}
}

func (a *app) getScholarCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "get-scholar field=value",
		Aliases: []string{"get_scholar"},
		Short:   "Print info about a scholar",
		Long:    "Looks scholars up by the first field given: id, internal_id, name, battle_name,\nronin_id, join_date (2006-01-02 or RFC3339, exact match) or is_active.",
		Example: "  " + progName + " get-scholar internal_id=42\n  " + progName + " get-scholar battle_name=batman\n  " +
			progName + " get-scholar join_date=2022-01-01",
		RunE: a.verb(true, func(cmd *cobra.Command, pairs Pairs) error {
			if pairs.Len() == 0 {
				return usageErrorf("missing lookup field, try with internal_id=...")
			}
			field := pairs.Keys()[0]
			value, _ := pairs.Get(field)

			scholars, err := services.NewScholarService(a.db).FilterBy(field, value)
			if err != nil {
				return asUsage(err)
			}
			return report.WriteScholars(cmd.OutOrStdout(), scholars, report.FormatTable)
		}),
	}
}

func (a *app) updScholarCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "upd-scholar internal_id=... field=value ...",
		Aliases: []string{"upd_scholar", "update-scholar"},
		Short:   "Update scholar info",
		Long: "The scholar being updated is the one matching internal_id.\n" +
			"id and join_date cannot be changed.",
		Example: "  " + progName + " upd-scholar internal_id=42 name='Clark Kent' battle_name=superman\n" +
			"  " + progName + " upd-scholar internal_id=42 is_active=false",
		RunE: a.verb(true, func(cmd *cobra.Command, pairs Pairs) error {
			internalID, err := pairs.Require("internal_id")
			if err != nil {
				return err
			}

			_, found, err := services.NewScholarService(a.db).Update(internalID, pairs.Without("internal_id"))
			if err != nil {
				return asUsage(err)
			}
			if !found {
				fmt.Fprintln(cmd.OutOrStdout(), report.NotFound)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Updated.")
			return nil
		}),
	}
}

func (a *app) delScholarCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "del-scholar internal_id=...",
		Aliases: []string{"del_scholar", "delete-scholar"},
		Short:   "Delete a scholar and its tracks from the database",
		Example: "  " + progName + " del-scholar internal_id=42",
		RunE: a.verb(true, func(cmd *cobra.Command, pairs Pairs) error {
			internalID, err := pairs.Require("internal_id")
			if err != nil {
				return err
			}

			found, err := services.NewScholarService(a.db).Delete(internalID)
			if err != nil {
				return err
			}
			if !found {
				fmt.Fprintln(cmd.OutOrStdout(), report.NotFound)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Deleted.")
			return nil
		}),
	}
}

func (a *app) listScholarsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list-scholars [format=table|json|csv]",
		Aliases: []string{"list_scholars"},
		Short:   "List all the scholars",
		Long:    "Data is not collected for scholars marked as not active.",
		Example: "  " + progName + " list-scholars\n  " + progName + " list-scholars format=json",
		RunE: a.verb(true, func(cmd *cobra.Command, pairs Pairs) error {
			if err := pairs.Only("format"); err != nil {
				return err
			}
			format, err := parseFormat(pairs)
			if err != nil {
				return err
			}

			scholars, err := services.NewScholarService(a.db).List()
			if err != nil {
				return err
			}
			return report.WriteScholars(cmd.OutOrStdout(), scholars, format)
		}),
	}
}

func parseFormat(pairs Pairs) (report.Format, error) {
	raw, _ := pairs.Get("format")
	format, err := report.ParseFormat(raw)
	if err != nil {
		return "", &UsageError{Msg: err.Error()}
	}
	return format, nil
}

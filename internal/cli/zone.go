package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ppiankov/cerebro/internal/api"
	"github.com/ppiankov/cerebro/internal/cerebro"
	"github.com/ppiankov/cerebro/internal/model"
)

var (
	zoneLat       float64
	zoneLng       float64
	zoneTerritory string
	zoneList      bool
	zonePolicy    string
)

func init() {
	rootCmd.AddCommand(zoneCmd)
	zoneCmd.Flags().Float64Var(&zoneLat, "lat", 0, "Latitude")
	zoneCmd.Flags().Float64Var(&zoneLng, "lng", 0, "Longitude")
	zoneCmd.Flags().StringVar(&zoneTerritory, "territory", "", "Territory ID")
	zoneCmd.Flags().BoolVar(&zoneList, "list", false, "List configured territories and their states")
	zoneCmd.Flags().StringVar(&zonePolicy, "policy", "", "Path to policy YAML")
}

var zoneCmd = &cobra.Command{
	Use:   "zone",
	Short: "Resolve the semaphore state of a point or territory",
	RunE:  runZone,
}

func runZone(cmd *cobra.Command, args []string) error {
	svc, err := cerebro.Load(cerebro.Options{PolicyPath: zonePolicy, Logger: log()})
	if err != nil {
		return err
	}
	defer svc.Close(cmd.Context())

	out := cmd.OutOrStdout()
	if zoneList {
		resolver := svc.Engine().Resolver()
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tSTATE\tZONES")
		for _, t := range resolver.Territories() {
			res, err := resolver.ResolveByID(t.ID)
			if err != nil {
				return err
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", t.ID, t.Name, res.State, len(t.Zones))
		}
		fmt.Fprintf(tw, "(uncovered)\t\t%s\t\n", resolver.Uncovered())
		return tw.Flush()
	}

	var req api.ZoneRequest
	if cmd.Flags().Changed("lat") || cmd.Flags().Changed("lng") {
		req.GeoPoint = &model.GeoPoint{Lat: zoneLat, Lng: zoneLng}
	}
	req.TerritoryID = zoneTerritory

	resp, err := api.Zone(svc, req)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(out, string(data))
	return nil
}

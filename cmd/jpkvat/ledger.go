package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/csg33k/jpk-vat/internal/domain"
	"github.com/csg33k/jpk-vat/internal/service"
)

var clientCmd = &cobra.Command{
	Use:   "client",
	Short: "Register and list taxpayers",
}

var clientAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a legal-entity taxpayer",
	Example: `  jpkvat client add --nip 526-104-08-28 --name "Acme Sp. z o.o." --office 1471 --filing monthly
  jpkvat client add --nip 5261040828 --name "Acme" --office 1471 --filing quarterly --refund carry-forward`,
	RunE: runClientAdd,
}

var clientListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered taxpayers",
	RunE: func(cmd *cobra.Command, _ []string) error {
		clients, err := instance.Service.Clients(cmd.Context(), instance.Tenant)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNIP\tNAME\tFILING\tREFUND")
		for _, c := range clients {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", c.ID, c.NIP, c.DisplayName(), c.Filing, c.Refund)
		}
		return tw.Flush()
	},
}

var postCmd = &cobra.Command{
	Use:   "post",
	Short: "Post a sale or purchase invoice",
	Long: `Post a transaction. Give either --net or --gross; the missing amounts are
derived from the rate in force on --date.`,
	Example: `  jpkvat post --client <id> --number FV/1/03/2024 --date 2024-03-05 --net 1000 --rate 23 \
    --direction output --counterparty-id 1234563218 --counterparty-name "Kontrahent"`,
	RunE: runPost,
}

var settleCmd = &cobra.Command{
	Use:     "settle",
	Short:   "Compute a new settlement version for a client period",
	Example: `  jpkvat settle --client <id> --period 2024-03`,
	RunE:    runSettle,
}

var declareCmd = &cobra.Command{
	Use:   "declare",
	Short: "Serialize a settlement into a stored JPK_V7 document",
	Example: `  jpkvat declare --settlement <id>
  jpkvat declare --settlement <id> --schema "JPK_V7M(1)" --out march.xml
  jpkvat declare --settlement <id> --interim`,
	RunE: runDeclare,
}

func init() {
	rootCmd.AddCommand(clientCmd, postCmd, settleCmd, declareCmd)
	clientCmd.AddCommand(clientAddCmd, clientListCmd)

	clientAddCmd.Flags().String("nip", "", "tax identification number")
	clientAddCmd.Flags().String("name", "", "full legal name")
	clientAddCmd.Flags().String("email", "", "contact e-mail")
	clientAddCmd.Flags().String("office", "", "four-character tax office code")
	clientAddCmd.Flags().String("filing", "monthly", "monthly or quarterly")
	clientAddCmd.Flags().String("refund", "refund", "refund or carry-forward")
	clientAddCmd.MarkFlagRequired("nip")
	clientAddCmd.MarkFlagRequired("name")
	clientAddCmd.MarkFlagRequired("office")

	postCmd.Flags().String("client", "", "client id")
	postCmd.Flags().String("number", "", "invoice number")
	postCmd.Flags().String("date", "", "invoice date (YYYY-MM-DD)")
	postCmd.Flags().String("net", "", "net amount")
	postCmd.Flags().String("gross", "", "gross amount")
	postCmd.Flags().String("rate", "23", "rate code: 23, 8, 5, 0, zw, np, oo")
	postCmd.Flags().String("direction", "output", "output, input or both")
	postCmd.Flags().String("type", string(domain.TypeDomestic), "transaction type")
	postCmd.Flags().String("counterparty-id", "", "counterparty tax id")
	postCmd.Flags().String("counterparty-name", "", "counterparty name")
	postCmd.MarkFlagRequired("client")
	postCmd.MarkFlagRequired("date")

	settleCmd.Flags().String("client", "", "client id")
	settleCmd.Flags().String("period", "", "period: 2024-03 or 2024-Q1")
	settleCmd.MarkFlagRequired("client")
	settleCmd.MarkFlagRequired("period")

	declareCmd.Flags().String("settlement", "", "settlement id")
	declareCmd.Flags().String("schema", "", "schema version, defaults by period kind")
	declareCmd.Flags().String("out", "", "also write the XML to this file")
	declareCmd.Flags().Bool("interim", false, "evidence part only, without the declaration")
	declareCmd.MarkFlagRequired("settlement")
}

func runClientAdd(cmd *cobra.Command, _ []string) error {
	f := cmd.Flags()
	nip, _ := f.GetString("nip")
	name, _ := f.GetString("name")
	email, _ := f.GetString("email")
	office, _ := f.GetString("office")
	filing, _ := f.GetString("filing")
	refund, _ := f.GetString("refund")

	c := &domain.ClientProfile{
		Kind:          domain.TaxpayerLegalEntity,
		NIP:           nip,
		FullName:      name,
		Email:         email,
		TaxOfficeCode: office,
		Filing:        domain.FilingFrequency(strings.ToUpper(filing)),
		Refund:        domain.RefundPayout,
	}
	if strings.EqualFold(refund, "carry-forward") {
		c.Refund = domain.RefundCarryForward
	}
	if err := instance.Service.RegisterClient(cmd.Context(), instance.Tenant, c); err != nil {
		return err
	}
	fmt.Println(c.ID)
	return nil
}

func runPost(cmd *cobra.Command, _ []string) error {
	f := cmd.Flags()
	clientID, _ := f.GetString("client")
	number, _ := f.GetString("number")
	rawDate, _ := f.GetString("date")
	rawNet, _ := f.GetString("net")
	rawGross, _ := f.GetString("gross")
	rate, _ := f.GetString("rate")
	direction, _ := f.GetString("direction")
	txType, _ := f.GetString("type")
	cpID, _ := f.GetString("counterparty-id")
	cpName, _ := f.GetString("counterparty-name")

	date, err := time.Parse(time.DateOnly, rawDate)
	if err != nil {
		return domain.NewValidation("date", "expected YYYY-MM-DD, got %q", rawDate)
	}
	net, err := optionalAmount("net", rawNet)
	if err != nil {
		return err
	}
	gross, err := optionalAmount("gross", rawGross)
	if err != nil {
		return err
	}
	if net.IsZero() == gross.IsZero() {
		return domain.NewValidation("net", "give exactly one of --net and --gross")
	}

	t, err := instance.Service.PostTransaction(cmd.Context(), instance.Tenant, &domain.Transaction{
		ClientID:         clientID,
		DocumentNumber:   number,
		Type:             domain.TransactionType(strings.ToUpper(txType)),
		Direction:        domain.Direction(strings.ToUpper(direction)),
		RateCode:         rate,
		Net:              net,
		Gross:            gross,
		Date:             date,
		CounterpartyID:   cpID,
		CounterpartyName: cpName,
	})
	if err != nil {
		return err
	}
	fmt.Printf("%s  seq=%d  period=%s  net=%s  vat=%s  gross=%s\n",
		t.ID, t.Sequence, t.Period, t.Net.StringFixed(2), t.VAT.StringFixed(2), t.Gross.StringFixed(2))
	return nil
}

func optionalAmount(field, raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", "."))
	if err != nil {
		return decimal.Zero, domain.NewValidation(field, "malformed amount %q", raw)
	}
	return d, nil
}

func runSettle(cmd *cobra.Command, _ []string) error {
	clientID, _ := cmd.Flags().GetString("client")
	rawPeriod, _ := cmd.Flags().GetString("period")
	period, err := domain.ParsePeriod(rawPeriod)
	if err != nil {
		return err
	}
	st, err := instance.Service.Settle(cmd.Context(), instance.Tenant, clientID, period)
	if err != nil {
		return err
	}
	printSettlement(st)
	return nil
}

func printSettlement(st *domain.PeriodSettlement) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "settlement\t%s\n", st.ID)
	fmt.Fprintf(tw, "period\t%s (version %d)\n", st.Period, st.Version)
	fmt.Fprintf(tw, "transactions\t%d\n", len(st.TransactionIDs))
	fmt.Fprintf(tw, "output VAT\t%s\n", st.OutputTotal.StringFixed(2))
	fmt.Fprintf(tw, "input VAT\t%s\n", st.InputTotal.StringFixed(2))
	fmt.Fprintf(tw, "carry-forward in\t%s\n", st.CarryForwardIn.StringFixed(2))
	fmt.Fprintf(tw, "due\t%s\n", st.FinalDue.StringFixed(2))
	fmt.Fprintf(tw, "refund\t%s (carried %s)\n", st.FinalRefund.StringFixed(2), st.RefundCarried.StringFixed(2))
	if st.AmendsFiled {
		fmt.Fprintf(tw, "note\tcorrects a filed version\n")
	}
	tw.Flush()
}

func runDeclare(cmd *cobra.Command, _ []string) error {
	settlementID, _ := cmd.Flags().GetString("settlement")
	schemaVersion, _ := cmd.Flags().GetString("schema")
	out, _ := cmd.Flags().GetString("out")
	interim, _ := cmd.Flags().GetBool("interim")

	doc, err := instance.Service.Declare(cmd.Context(), instance.Tenant, settlementID, service.DeclareOptions{
		SchemaVersion: schemaVersion,
		Interim:       interim,
	})
	if err != nil {
		return err
	}
	if out != "" {
		_, data, err := instance.Service.Document(cmd.Context(), instance.Tenant, doc.ID)
		if err != nil {
			return err
		}
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return err
		}
	}
	fmt.Printf("%s  %s  purpose=%s  interim=%t  sha256=%s\n", doc.ID, doc.SchemaVersion, doc.Purpose, doc.Interim, doc.Digest)
	return nil
}

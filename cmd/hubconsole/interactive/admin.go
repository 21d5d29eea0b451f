package interactive

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hubconsole/hubconsole-go/pkg/model"
)

const rule = "--------------------------------------------------------------------------------"

// removal reports whether args start with verb and returns the ids after it.
func removal(args []string, verb string) ([]string, bool) {
	if len(args) == 0 || !strings.EqualFold(args[0], verb) {
		return nil, false
	}
	return args[1:], true
}

// remove runs del for the ids of a "<what> rm <id...>" command.
func (c *Console) remove(ctx context.Context, what, noun string, ids []string,
	del func(context.Context, ...string) (int64, error)) error {
	if len(ids) == 0 {
		return usage(what + " rm <id...>")
	}
	n, err := del(ctx, ids...)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Deleted %d %s\n", n, noun)
	return nil
}

func (c *Console) cmdTokens(ctx context.Context, args []string) error {
	if ids, ok := removal(args, "revoke"); ok {
		if len(ids) == 0 {
			return usage("tokens revoke <id...>")
		}
		n, err := c.hub.BlacklistTokens(ctx, ids...)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "Revoked %d token(s)\n", n)
		return nil
	}

	all := len(args) == 1 && strings.EqualFold(args[0], "all")
	if len(args) > 1 || (len(args) == 1 && !all) {
		return usage("tokens [all]")
	}

	tokens, err := c.hub.ListTokens(ctx, all)
	if err != nil {
		return err
	}
	if len(tokens) == 0 {
		fmt.Fprintln(c.out, "No API tokens")
		return nil
	}

	now := time.Now()
	fmt.Fprintf(c.out, "\nAPI tokens (%d):\n", len(tokens))
	fmt.Fprintf(c.out, "%-38s %-20s %-20s %s\n", "ID", "NAME", "EXPIRES", "STATE")
	fmt.Fprintln(c.out, rule)
	for _, t := range tokens {
		expires := "never"
		if t.Expiration != 0 {
			expires = formatTime(t.Expiration.Time())
		}
		fmt.Fprintf(c.out, "%-38s %-20s %-20s %s\n", t.ID, t.Name, expires, tokenState(&t, now))
	}
	return nil
}

func tokenState(t *model.Token, now time.Time) string {
	switch {
	case t.Blacklisted.Flag:
		return "revoked"
	case t.Expired(now):
		return "expired"
	default:
		return "active"
	}
}

func (c *Console) cmdCerts(ctx context.Context, args []string) error {
	if ids, ok := removal(args, "rm"); ok {
		return c.remove(ctx, "certs", "signing record(s)", ids, c.hub.DeleteSigningRecords)
	}
	records, err := c.hub.ListSigningRecords(ctx, args...)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(c.out, "No signing records")
		return nil
	}

	fmt.Fprintf(c.out, "\nSigning records (%d):\n", len(records))
	fmt.Fprintf(c.out, "%-38s %-30s %-20s %s\n", "ID", "COMMON NAME", "VALID UNTIL", "DEVICE")
	fmt.Fprintln(c.out, rule)
	for _, r := range records {
		fmt.Fprintf(c.out, "%-38s %-30s %-20s %s\n",
			r.ID, r.CommonName, formatTime(r.Credential.ValidUntilDate.Time()), r.DeviceID)
	}
	return nil
}

func (c *Console) cmdGroups(ctx context.Context, args []string) error {
	if ids, ok := removal(args, "rm"); ok {
		return c.remove(ctx, "groups", "enrollment group(s)", ids, c.hub.DeleteEnrollmentGroups)
	}
	if len(args) > 0 && strings.EqualFold(args[0], "add") {
		return c.addGroup(ctx, args[1:])
	}
	groups, err := c.hub.ListEnrollmentGroups(ctx, args...)
	if err != nil {
		return err
	}
	if len(groups) == 0 {
		fmt.Fprintln(c.out, "No enrollment groups")
		return nil
	}

	fmt.Fprintf(c.out, "\nEnrollment groups (%d):\n", len(groups))
	fmt.Fprintf(c.out, "%-38s %-24s %-6s %s\n", "ID", "NAME", "PSK", "HUBS")
	fmt.Fprintln(c.out, rule)
	for _, g := range groups {
		psk := "no"
		if g.PreSharedKey != "" {
			psk = "yes"
		}
		fmt.Fprintf(c.out, "%-38s %-24s %-6s %s\n", g.ID, g.Name, psk, strings.Join(g.HubIDs, ","))
	}
	return nil
}

func (c *Console) cmdHubs(ctx context.Context, args []string) error {
	if ids, ok := removal(args, "rm"); ok {
		return c.remove(ctx, "hubs", "linked hub(s)", ids, c.hub.DeleteLinkedHubs)
	}
	if len(args) > 0 && strings.EqualFold(args[0], "add") {
		return c.addHub(ctx, args[1:])
	}
	hubs, err := c.hub.ListLinkedHubs(ctx, args...)
	if err != nil {
		return err
	}
	if len(hubs) == 0 {
		fmt.Fprintln(c.out, "No linked hubs")
		return nil
	}

	fmt.Fprintf(c.out, "\nLinked hubs (%d):\n", len(hubs))
	fmt.Fprintf(c.out, "%-38s %-20s %s\n", "HUB ID", "NAME", "GATEWAYS")
	fmt.Fprintln(c.out, rule)
	for _, h := range hubs {
		fmt.Fprintf(c.out, "%-38s %-20s %s\n", h.HubID, h.Name, strings.Join(h.Gateways, ","))
		if addr := h.CertificateAuthority.GRPC.Address; addr != "" {
			fmt.Fprintf(c.out, "      CA: %s\n", addr)
		}
	}
	return nil
}

func (c *Console) cmdRecords(ctx context.Context, args []string) error {
	if ids, ok := removal(args, "rm"); ok {
		return c.remove(ctx, "records", "provisioning record(s)", ids, c.hub.DeleteProvisioningRecords)
	}
	records, err := c.hub.ListProvisioningRecords(ctx, args...)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(c.out, "No provisioning records")
		return nil
	}

	fmt.Fprintf(c.out, "\nProvisioning records (%d):\n", len(records))
	fmt.Fprintf(c.out, "%-38s %-38s %s\n", "DEVICE", "ENROLLMENT GROUP", "CREATED")
	fmt.Fprintln(c.out, rule)
	for _, r := range records {
		fmt.Fprintf(c.out, "%-38s %-38s %s\n", r.DeviceID, r.EnrollmentGroupID, formatTime(r.CreationDate.Time()))
		if x := r.Attestation.X509; x != nil && x.CommonName != "" {
			fmt.Fprintf(c.out, "      Attested as: %s\n", x.CommonName)
		}
	}
	return nil
}

func (c *Console) addGroup(ctx context.Context, args []string) error {
	if len(args) < 3 || len(args) > 4 {
		return usage("groups add <name> <hub-id,...> <chain.pem> [psk]")
	}
	chain, err := os.ReadFile(args[2])
	if err != nil {
		return fmt.Errorf("read certificate chain: %w", err)
	}
	g := model.EnrollmentGroup{
		Name:   args[0],
		HubIDs: splitList(args[1]),
		AttestationMechanism: model.AttestationMechanism{
			X509: &model.X509Attestation{CertificateChain: string(chain)},
		},
	}
	if len(args) == 4 {
		g.PreSharedKey = args[3]
	}

	created, err := c.hub.CreateEnrollmentGroup(ctx, g)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Created enrollment group %s (%s)\n", created.Name, created.ID)
	return nil
}

func (c *Console) addHub(ctx context.Context, args []string) error {
	if len(args) < 3 || len(args) > 4 {
		return usage("hubs add <hub-id> <name> <gateway,...> [ca-address]")
	}
	h := model.LinkedHub{
		HubID:    args[0],
		Name:     args[1],
		Gateways: splitList(args[2]),
	}
	if len(args) == 4 {
		h.CertificateAuthority.GRPC.Address = args[3]
	}

	created, err := c.hub.CreateLinkedHub(ctx, h)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Linked hub %s (%s)\n", created.Name, created.HubID)
	return nil
}

// splitList splits a comma-separated argument, dropping empty items.
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

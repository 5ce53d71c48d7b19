// Command pokeduel is the CLI entrypoint exposing the Host, Joiner, and
// Spectator roles described in the external interfaces design, generalized
// from the teacher's single always-host core/main.go into three role
// entrypoints plus an in-session REPL for start_battle/submit_move/
// send_chat/shutdown.
package main

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"pokeduel/internal/battle"
	"pokeduel/internal/battleerr"
	"pokeduel/internal/catalog"
	"pokeduel/internal/config"
	"pokeduel/internal/loop"
	"pokeduel/internal/metrics"
	"pokeduel/internal/reliability"
	"pokeduel/internal/role"
	"pokeduel/internal/session"
	"pokeduel/internal/wire"
	"pokeduel/pkg/logger"
)

const version = "0.1.0"

func main() {
	root := &cobra.Command{
		Use:   "pokeduel",
		Short: "peer-to-peer turn-based battle engine",
	}

	var port int
	var catalogPath string

	listenCmd := &cobra.Command{
		Use:   "listen",
		Short: "start as Host and wait for a Joiner",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHost(port, catalogPath)
		},
	}
	listenCmd.Flags().IntVar(&port, "port", 8888, "UDP port to bind")
	listenCmd.Flags().StringVar(&catalogPath, "catalog", "", "path to a Pokemon CSV catalog")

	var joinHost string
	var joinPort int
	joinCmd := &cobra.Command{
		Use:   "join",
		Short: "connect to a Host as the Joiner",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJoinerOrSpectator(role.Joiner, joinHost, joinPort, catalogPath)
		},
	}
	joinCmd.Flags().StringVar(&joinHost, "host", "127.0.0.1", "Host address")
	joinCmd.Flags().IntVar(&joinPort, "port", 8888, "Host UDP port")
	joinCmd.Flags().StringVar(&catalogPath, "catalog", "", "path to a Pokemon CSV catalog")

	spectateCmd := &cobra.Command{
		Use:   "spectate",
		Short: "connect to a Host as a read-only Spectator",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJoinerOrSpectator(role.Spectator, joinHost, joinPort, catalogPath)
		},
	}
	spectateCmd.Flags().StringVar(&joinHost, "host", "127.0.0.1", "Host address")
	spectateCmd.Flags().IntVar(&joinPort, "port", 8888, "Host UDP port")
	spectateCmd.Flags().StringVar(&catalogPath, "catalog", "", "path to a Pokemon CSV catalog")

	root.AddCommand(listenCmd, joinCmd, spectateCmd)

	if err := root.Execute(); err != nil {
		logger.Fatal("%v", err)
	}
}

// peer bundles everything the REPL and the loop's message handler share.
type peer struct {
	sess *session.Session
	rel  *reliability.Layer
	cat  *catalog.Catalog
	role role.Role

	localMine *battle.Pokemon // set once this side has called "battle"
	remoteOpp *battle.Pokemon // set once the opposing BattleSetup arrived
}

func runHost(port int, catalogPath string) error {
	logger.Banner("pokeduel", version)
	cfg, err := config.Load("")
	if err != nil {
		return err
	}
	cfg.ListenPort = port

	cat, err := loadCatalog(catalogPath)
	if err != nil {
		return err
	}

	addr := &net.UDPAddr{IP: net.IPv4zero, Port: cfg.ListenPort}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	counters := metrics.NewReliability(fmt.Sprintf("host:%d", cfg.ListenPort))
	rel := reliability.New(loop.SendFunc(conn),
		reliability.WithRetryInterval(cfg.RetryInterval),
		reliability.WithMaxRetries(cfg.MaxRetries),
		reliability.WithCounters(counters))

	p := &peer{rel: rel, cat: cat, role: role.Host}
	p.sess = session.NewHostSession(rel, &sinkLogger{})

	rel.OnUnreachable = func(dest reliability.Endpoint, seq uint64) {
		logger.Event("peer unreachable", logger.F("endpoint", dest.String()), logger.F("sequence", seq))
	}

	logger.Info("listening on :%d as Host", cfg.ListenPort)
	return runLoop(conn, p)
}

func runJoinerOrSpectator(r role.Role, host string, port int, catalogPath string) error {
	logger.Banner("pokeduel", version)
	cfg, err := config.Load("")
	if err != nil {
		return err
	}

	cat, err := loadCatalog(catalogPath)
	if err != nil {
		return err
	}

	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4zero, Port: 0})
	if err != nil {
		return err
	}
	defer conn.Close()

	counters := metrics.NewReliability(fmt.Sprintf("%s:%s:%d", r, host, port))
	rel := reliability.New(loop.SendFunc(conn),
		reliability.WithRetryInterval(cfg.RetryInterval),
		reliability.WithMaxRetries(cfg.MaxRetries),
		reliability.WithCounters(counters))

	hostEP := reliability.Endpoint{IP: host, Port: port}
	p := &peer{rel: rel, cat: cat, role: r}
	if r == role.Spectator {
		p.sess = session.NewSpectatorSession(rel, hostEP, &sinkLogger{})
	} else {
		p.sess = session.NewJoinerSession(rel, hostEP, &sinkLogger{})
	}

	if err := p.sess.BeginHandshake(time.Now()); err != nil {
		return err
	}

	logger.Info("connecting to %s as %s", hostEP.String(), r)
	return runLoop(conn, p)
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	var cat *catalog.Catalog
	if path == "" {
		f, err := os.Open("internal/catalog/testdata/pokemon.csv")
		if err != nil {
			return nil, fmt.Errorf("no --catalog given and default testdata catalog unavailable: %w", err)
		}
		defer f.Close()
		cat, err = catalog.LoadPokemonCSV(f)
		if err != nil {
			return nil, err
		}
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		cat, err = catalog.LoadPokemonCSV(f)
		if err != nil {
			return nil, err
		}
	}

	mf, err := os.Open("internal/catalog/testdata/moves.csv")
	if err != nil {
		return nil, fmt.Errorf("move catalog unavailable: %w", err)
	}
	defer mf.Close()
	if err := cat.LoadMoves(mf); err != nil {
		return nil, err
	}
	return cat, nil
}

func runLoop(conn *net.UDPConn, p *peer) error {
	commands := make(chan func(), 8)
	go readREPL(p, commands)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	l := loop.New(conn, p.rel, p.handleMessage, commands)
	if err := l.Run(ctx); err != nil {
		return err
	}
	logger.Success("shut down cleanly")
	return nil
}

func (p *peer) handleMessage(m *wire.Message, from reliability.Endpoint) error {
	switch m.Kind {
	case wire.KindHandshakeRequest:
		return p.sess.HandleHandshakeRequest(from, func(out *wire.Message, dest reliability.Endpoint) error {
			_, err := p.rel.Send(out, dest, time.Now())
			return err
		})
	case wire.KindHandshakeResponse:
		return p.sess.HandleHandshakeResponse(m)
	case wire.KindSpectatorRequest:
		return p.sess.HandleSpectatorRequest(from, func(out *wire.Message, dest reliability.Endpoint) error {
			_, err := p.rel.Send(out, dest, time.Now())
			return err
		})
	case wire.KindBattleSetup:
		fields, err := session.ParseBattleSetup(m)
		if err != nil {
			return err
		}
		logger.Info("opponent chose %s", fields["name"])
		entry, ok := p.cat.Lookup(fields["name"])
		if !ok {
			return battleerr.New(battleerr.KindMalformedMessage, "opponent catalog entry %q unknown", fields["name"])
		}
		p.remoteOpp = battle.NewPokemon(entry.Name, entry.Type1, entry.Type2, entry.BaseAttack, entry.BaseDefense, entry.BaseSpecialAttack, entry.BaseSpecialDefense, entry.MaxHP)
		p.tryStartBattle()
		return nil
	case wire.KindChatMessage:
		origin := m.Str("origin_role")
		if origin == "" {
			origin = "host"
		}
		logger.InfoCyan("[%s] %s", origin, m.Str("content"))
		if p.role == role.Host {
			return p.sess.HandleChatMessage(m, from, time.Now())
		}
		return nil
	default:
		if p.sess.Battle == nil {
			return battleerr.New(battleerr.KindProtocolDesync, "battle message %s received before BattleSetup", m.Kind)
		}
		responses, err := p.sess.Battle.HandleMessage(m)
		if err != nil {
			return err
		}
		dest := from
		for _, resp := range responses {
			if _, err := p.rel.Send(resp, dest, time.Now()); err != nil {
				return err
			}
		}
		return nil
	}
}

// readREPL reads stdin commands and enqueues closures onto commands, the
// only other goroutine in the process besides the signal handler — it never
// touches session/battle/reliability state directly.
func readREPL(p *peer, commands chan<- func()) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		cmd := fields[0]
		args := fields[1:]

		switch cmd {
		case "battle":
			commands <- func() { p.cmdStartBattle(args) }
		case "move":
			commands <- func() { p.cmdSubmitMove(args) }
		case "defend":
			commands <- func() { p.cmdArmDefenseBoost(args) }
		case "chat":
			commands <- func() { p.cmdSendChat(strings.Join(args, " ")) }
		case "quit", "shutdown":
			commands <- func() { os.Exit(0) }
		default:
			logger.Warn("unknown command %q", cmd)
		}
	}
}

func (p *peer) cmdStartBattle(args []string) {
	if len(args) < 1 {
		logger.Warn("usage: battle <pokemon-name>")
		return
	}
	entry, ok := p.cat.Lookup(args[0])
	if !ok {
		logger.Warn("unknown pokemon %q", args[0])
		return
	}
	p.localMine = battle.NewPokemon(entry.Name, entry.Type1, entry.Type2, entry.BaseAttack, entry.BaseDefense, entry.BaseSpecialAttack, entry.BaseSpecialDefense, entry.MaxHP)

	literal := map[string]string{
		"name":  entry.Name,
		"type1": string(entry.Type1),
		"type2": string(entry.Type2),
	}
	if err := p.sess.SendBattleSetup(literal, time.Now()); err != nil {
		logger.Warn("sending BattleSetup: %v", err)
		return
	}
	p.tryStartBattle()
}

// tryStartBattle builds the Battle once both this side's chosen Pokemon and
// the opposing peer's BattleSetup have arrived, in whichever order.
func (p *peer) tryStartBattle() {
	if p.localMine == nil || p.remoteOpp == nil || p.sess.Battle != nil {
		return
	}
	p.sess.Battle = battle.NewBattle(p.localMine, p.remoteOpp, p.sess.Seed, p.role == role.Host, p.role, p.cat, &sinkLogger{})
	logger.Success("battle started: %s vs %s", p.localMine.Name, p.remoteOpp.Name)
}

func (p *peer) cmdSubmitMove(args []string) {
	if p.sess.Battle == nil {
		logger.Warn("no battle in progress")
		return
	}
	if len(args) < 1 {
		logger.Warn("usage: move <name> [boost]")
		return
	}
	boost := len(args) > 1 && args[1] == "boost"
	msg, err := p.sess.Battle.BeginTurn(args[0], boost)
	if err != nil {
		logger.Warn("submit_move: %v", err)
		return
	}

	dest, ok := p.opponentEndpoint()
	if !ok {
		logger.Warn("no opponent connected")
		return
	}
	if _, err := p.rel.Send(msg, dest, time.Now()); err != nil {
		logger.Warn("sending AttackAnnounce: %v", err)
	}
}

// cmdArmDefenseBoost arms or disarms this side's special-defense boost for
// the next turn it finds itself defending; there is no synchronous prompt
// between an incoming AttackAnnounce and this peer's DefenseAnnounce, so
// the decision has to be staged ahead of time.
func (p *peer) cmdArmDefenseBoost(args []string) {
	if p.sess.Battle == nil {
		logger.Warn("no battle in progress")
		return
	}
	armed := len(args) == 0 || args[0] != "off"
	if armed && p.localMine.DefenseBoostsLeft() <= 0 {
		logger.Warn("no special-defense boosts remaining for %s", p.localMine.Name)
		return
	}
	p.sess.Battle.SetDefenseBoostArmed(armed)
	if armed {
		logger.Info("special-defense boost armed for the next incoming attack")
	} else {
		logger.Info("special-defense boost disarmed")
	}
}

func (p *peer) cmdSendChat(text string) {
	if err := p.sess.SendChat(text, time.Now()); err != nil {
		logger.Warn("send_chat: %v", err)
	}
}

func (p *peer) opponentEndpoint() (reliability.Endpoint, bool) {
	if p.role == role.Host {
		return p.sess.JoinerEndpoint()
	}
	return p.sess.HostEndpoint(), true
}

// sinkLogger renders battle events through the ambient logger; the only
// consumer of EventSink in this binary.
type sinkLogger struct{}

func (sinkLogger) OnTurnResolved(attacker, defender *battle.Pokemon, result battle.TurnResult) {
	logger.Info("%s used %s: %d damage (%s now at %.0f HP)", attacker.Name, result.MoveName, result.Damage, defender.Name, result.DefenderHPAfter)
	if result.StatusMessage != "" {
		logger.Info("%s", result.StatusMessage)
	}
}

func (sinkLogger) OnGameOver(winner role.Role) {
	logger.Success("game over: %s wins", winner)
}

func (sinkLogger) OnDesync(reason string) {
	logger.Error("protocol desync: %s", reason)
}

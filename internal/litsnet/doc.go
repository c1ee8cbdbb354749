// Package litsnet implements LITSNet, the policy/value network for The
// Battle of LITS, and the export of its traced "template" artifact.
//
// The network maps a [batch, 5, 10, 10] board image to a [batch, 1293]
// policy over move indices and a [batch, 1] value:
//
//	convol_0 (5→15, 2x2) → relu → convol_1 (15→25, 2x2) → relu → flatten
//	  ├─ policy_0 (1600→1600) → relu → policy_1 (1600→1293) → relu
//	  └─ values_0 (1600→256)  → relu → values_1 (256→1)     → relu
//
// Example usage:
//
//	backend := cpu.New()
//	net := litsnet.New(backend, litsnet.WithSeed(1))
//	art, err := litsnet.Export(ctx, net, "models/template.born", litsnet.ExportOptions{})
//	if err != nil {
//	    return err
//	}
//
//	net, trace, err := litsnet.Load(art.Path, backend)
//	move, err := litsnet.NewPredictor(net, backend).Best(board, lits.X)
package litsnet

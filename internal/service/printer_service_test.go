// internal/service/printer_service_test.go
package service

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"label-service/internal/model"
	"label-service/internal/repository"
)

func newTestPrinterService(ft *fakeTransport, bus *recordingBus) (*PrinterService, repository.PrinterRepository) {
	printerRepo := repository.NewPrinterRepository(zap.NewNop())
	ps := NewPrinterService(printerRepo, testConfig(), bus, zap.NewNop())
	if ft != nil {
		ps.newTransport = fakeFactory(ft)
	}
	return ps, printerRepo
}

func TestRegisterPrinter(t *testing.T) {
	bus := &recordingBus{}
	ps, _ := newTestPrinterService(nil, bus)

	printer, err := ps.RegisterPrinter(context.Background(), &RegisterPrinterRequest{
		Name:           "dock-1",
		Model:          "ZT230",
		ConnectionType: model.ConnectionTypeFTP,
		ConnectionConfig: model.ConnectionConfig{
			Host: "192.168.1.40",
		},
	})
	if err != nil {
		t.Fatalf("RegisterPrinter failed: %v", err)
	}
	if printer.Status != model.PrinterStatusUnknown {
		t.Errorf("expected UNKNOWN status for new printer, got %s", printer.Status)
	}

	if len(bus.byType(model.EventPrinterRegistered)) != 1 {
		t.Error("expected a PRINTER_REGISTERED event")
	}

	// duplicate name is rejected
	_, err = ps.RegisterPrinter(context.Background(), &RegisterPrinterRequest{
		Name:           "dock-1",
		ConnectionType: model.ConnectionTypeTCP,
		ConnectionConfig: model.ConnectionConfig{
			Host: "192.168.1.41",
		},
	})
	if err == nil {
		t.Error("expected error for duplicate name")
	}
}

func TestRegisterPrinterValidation(t *testing.T) {
	ps, _ := newTestPrinterService(nil, nil)

	tests := []struct {
		name string
		req  RegisterPrinterRequest
	}{
		{
			name: "missing name",
			req: RegisterPrinterRequest{
				ConnectionType:   model.ConnectionTypeTCP,
				ConnectionConfig: model.ConnectionConfig{Host: "10.0.0.1"},
			},
		},
		{
			name: "missing connection type",
			req: RegisterPrinterRequest{
				Name:             "dock-2",
				ConnectionConfig: model.ConnectionConfig{Host: "10.0.0.1"},
			},
		},
		{
			name: "tcp without host",
			req: RegisterPrinterRequest{
				Name:           "dock-3",
				ConnectionType: model.ConnectionTypeTCP,
			},
		},
		{
			name: "serial without device",
			req: RegisterPrinterRequest{
				Name:           "dock-4",
				ConnectionType: model.ConnectionTypeSerial,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ps.RegisterPrinter(context.Background(), &tt.req); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestUpdatePrinterPartial(t *testing.T) {
	ps, _ := newTestPrinterService(nil, nil)

	printer, err := ps.RegisterPrinter(context.Background(), &RegisterPrinterRequest{
		Name:           "dock-1",
		Model:          "ZT230",
		ConnectionType: model.ConnectionTypeTCP,
		ConnectionConfig: model.ConnectionConfig{
			Host: "192.168.1.40",
			Port: 9100,
		},
	})
	if err != nil {
		t.Fatalf("RegisterPrinter failed: %v", err)
	}

	updated, err := ps.UpdatePrinter(context.Background(), printer.ID, &UpdatePrinterRequest{
		Name: "dock-renamed",
	})
	if err != nil {
		t.Fatalf("UpdatePrinter failed: %v", err)
	}
	if updated.Name != "dock-renamed" {
		t.Errorf("name not updated: %s", updated.Name)
	}
	if updated.ConnectionConfig.Host != "192.168.1.40" {
		t.Errorf("addressing changed on a name-only update: %+v", updated.ConnectionConfig)
	}

	// invalid replacement addressing is rejected
	_, err = ps.UpdatePrinter(context.Background(), printer.ID, &UpdatePrinterRequest{
		ConnectionConfig: &model.ConnectionConfig{},
	})
	if err == nil {
		t.Error("expected validation error for empty host")
	}
}

func TestDeletePrinter(t *testing.T) {
	bus := &recordingBus{}
	ps, repo := newTestPrinterService(nil, bus)

	printer, err := ps.RegisterPrinter(context.Background(), &RegisterPrinterRequest{
		Name:             "dock-1",
		ConnectionType:   model.ConnectionTypeTCP,
		ConnectionConfig: model.ConnectionConfig{Host: "192.168.1.40"},
	})
	if err != nil {
		t.Fatalf("RegisterPrinter failed: %v", err)
	}

	if err := ps.DeletePrinter(context.Background(), printer.ID); err != nil {
		t.Fatalf("DeletePrinter failed: %v", err)
	}
	if _, err := repo.GetByID(context.Background(), printer.ID); err == nil {
		t.Error("expected printer to be gone")
	}
	if len(bus.byType(model.EventPrinterRemoved)) != 1 {
		t.Error("expected a PRINTER_REMOVED event")
	}
}

func TestTestPrinterRecordsStatus(t *testing.T) {
	bus := &recordingBus{}
	ft := &fakeTransport{}
	ps, repo := newTestPrinterService(ft, bus)

	printer, err := ps.RegisterPrinter(context.Background(), &RegisterPrinterRequest{
		Name:             "dock-1",
		ConnectionType:   model.ConnectionTypeTCP,
		ConnectionConfig: model.ConnectionConfig{Host: "192.168.1.40"},
	})
	if err != nil {
		t.Fatalf("RegisterPrinter failed: %v", err)
	}

	result, err := ps.TestPrinter(context.Background(), printer.ID)
	if err != nil {
		t.Fatalf("TestPrinter failed: %v", err)
	}
	if !result.Success {
		t.Errorf("expected reachable printer: %+v", result)
	}

	stored, _ := repo.GetByID(context.Background(), printer.ID)
	if stored.Status != model.PrinterStatusOnline {
		t.Errorf("expected ONLINE, got %s", stored.Status)
	}
	if stored.LastSeen == nil {
		t.Error("expected last seen to be set")
	}
	if len(bus.byType(model.EventPrinterStatus)) != 1 {
		t.Error("expected a PRINTER_STATUS event")
	}

	// unreachable probe flips it back offline
	ft.failOpen = true
	result, err = ps.TestPrinter(context.Background(), printer.ID)
	if err != nil {
		t.Fatalf("TestPrinter failed: %v", err)
	}
	if result.Success {
		t.Error("expected probe to fail")
	}
	stored, _ = repo.GetByID(context.Background(), printer.ID)
	if stored.Status != model.PrinterStatusOffline {
		t.Errorf("expected OFFLINE, got %s", stored.Status)
	}
}

func TestRefreshStatuses(t *testing.T) {
	ft := &fakeTransport{}
	ps, repo := newTestPrinterService(ft, nil)

	for _, name := range []string{"dock-1", "dock-2"} {
		if _, err := ps.RegisterPrinter(context.Background(), &RegisterPrinterRequest{
			Name:             name,
			ConnectionType:   model.ConnectionTypeTCP,
			ConnectionConfig: model.ConnectionConfig{Host: "192.168.1.40"},
		}); err != nil {
			t.Fatalf("RegisterPrinter failed: %v", err)
		}
	}

	ps.RefreshStatuses(context.Background())

	online, err := repo.ListByStatus(context.Background(), model.PrinterStatusOnline)
	if err != nil {
		t.Fatalf("ListByStatus failed: %v", err)
	}
	if len(online) != 2 {
		t.Errorf("expected 2 online printers, got %d", len(online))
	}
}

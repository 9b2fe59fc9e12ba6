package classifier

import (
	"errors"
	"fmt"

	domsvc "StockSignal/internal/domain/service"
	"StockSignal/pkg/config"
)

// ErrUnknownType is returned for a classifier type Load cannot build.
var ErrUnknownType = errors.New("unknown classifier type")

// Load builds the classifier selected by cfg.Classifier.Type. Type "none" returns (nil, nil).
func Load(cfg *config.Config) (domsvc.Classifier, error) {
	switch cfg.Classifier.Type {
	case config.ClassifierNone, "":
		return nil, nil
	case config.ClassifierFile:
		l, err := LoadLogistic(cfg.Classifier.Path)
		if err != nil {
			return nil, err
		}
		return l, nil
	case config.ClassifierHTTP:
		c, err := NewHTTPClassifier(cfg.Classifier.URL, cfg.Classifier.Timeout)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownType, cfg.Classifier.Type)
	}
}
